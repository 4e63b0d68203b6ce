package backtest

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func tradeWithPnL(pnl, force, turbulence float64) Trade {
	return Trade{
		PnL: pnl,
		Entry: FieldContext{
			LatestForce: force,
			Turbulence:  turbulence,
		},
	}
}

func TestProfitFactorSentinels(t *testing.T) {
	onlyWins := computeMetrics([]Trade{tradeWithPnL(10, 0, 0), tradeWithPnL(5, 0, 0)}, nil, 1000)
	if !math.IsInf(onlyWins.ProfitFactor, 1) {
		t.Fatalf("wins with zero losses must report +Inf, got %v", onlyWins.ProfitFactor)
	}

	onlyLosses := computeMetrics([]Trade{tradeWithPnL(-10, 0, 0)}, nil, 1000)
	if onlyLosses.ProfitFactor != 0 {
		t.Fatalf("no wins must report 0, got %v", onlyLosses.ProfitFactor)
	}

	empty := computeMetrics(nil, nil, 1000)
	if empty.ProfitFactor != 0 || empty.WinRate != 0 || empty.TotalTrades != 0 {
		t.Fatalf("empty run must zero out, got %+v", empty)
	}

	mixed := computeMetrics([]Trade{tradeWithPnL(30, 0, 0), tradeWithPnL(-10, 0, 0)}, nil, 1000)
	if mixed.ProfitFactor != 3 {
		t.Fatalf("expected profit factor 3, got %v", mixed.ProfitFactor)
	}
}

func TestWinLossAggregates(t *testing.T) {
	trades := []Trade{
		tradeWithPnL(10, 0.002, 0.0001),
		tradeWithPnL(30, 0.004, 0.0003),
		tradeWithPnL(-5, 0.001, 0.002),
	}
	m := computeMetrics(trades, nil, 1000)

	if m.WinningTrades != 2 || m.LosingTrades != 1 {
		t.Fatalf("bad win/loss split: %+v", m)
	}
	if math.Abs(m.WinRate-2.0/3.0) > 1e-12 {
		t.Fatalf("expected win rate 2/3, got %v", m.WinRate)
	}
	if m.AverageWin != 20 || m.AverageLoss != 5 {
		t.Fatalf("expected avg win 20 / avg loss 5, got %v / %v", m.AverageWin, m.AverageLoss)
	}
	if m.LargestWin != 30 || m.LargestLoss != 5 {
		t.Fatalf("expected largest 30 / 5, got %v / %v", m.LargestWin, m.LargestLoss)
	}
	if math.Abs(m.TotalPnL-35) > 1e-12 || math.Abs(m.ReturnPercent-3.5) > 1e-12 {
		t.Fatalf("expected pnl 35 (3.5%%), got %v (%v%%)", m.TotalPnL, m.ReturnPercent)
	}
	if math.Abs(m.WinnerAvgForce-0.003) > 1e-12 || math.Abs(m.LoserAvgTurbulence-0.002) > 1e-12 {
		t.Fatalf("bad attribution: %+v", m)
	}
}

func TestMaxDrawdown(t *testing.T) {
	equity := []EquityPoint{
		{Timestamp: 1, Equity: 100},
		{Timestamp: 2, Equity: 120},
		{Timestamp: 3, Equity: 90},
		{Timestamp: 4, Equity: 110},
		{Timestamp: 5, Equity: 105},
	}
	abs, frac := maxDrawdown(equity)
	if abs != 30 {
		t.Fatalf("expected absolute drawdown 30, got %v", abs)
	}
	if math.Abs(frac-0.25) > 1e-12 {
		t.Fatalf("expected 25%% drawdown, got %v", frac)
	}

	abs, frac = maxDrawdown([]EquityPoint{{Timestamp: 1, Equity: 100}, {Timestamp: 2, Equity: 110}})
	if abs != 0 || frac != 0 {
		t.Fatalf("rising equity has no drawdown, got %v/%v", abs, frac)
	}
}

func TestRatiosOnFlatEquity(t *testing.T) {
	equity := []EquityPoint{{Timestamp: 1, Equity: 100}, {Timestamp: 2, Equity: 100}, {Timestamp: 3, Equity: 100}}
	m := computeMetrics(nil, equity, 100)
	if m.SharpeRatio != 0 || m.SortinoRatio != 0 || m.CalmarRatio != 0 {
		t.Fatalf("flat equity must zero the ratios, got %+v", m)
	}
}

func TestSharpePositiveForSteadyGains(t *testing.T) {
	equity := make([]EquityPoint, 0, 20)
	value := 100.0
	for i := 0; i < 20; i++ {
		equity = append(equity, EquityPoint{Timestamp: int64(i), Equity: value})
		value *= 1.01
	}
	m := computeMetrics(nil, equity, 100)
	// Identical positive returns have (near) zero variance; tiny float noise
	// may leave either a zero or a huge positive ratio, never a negative one.
	if m.SharpeRatio < 0 {
		t.Fatalf("steady gains must not produce negative sharpe, got %v", m.SharpeRatio)
	}
	if m.SortinoRatio != 0 {
		t.Fatalf("no negative returns means sortino stays 0, got %v", m.SortinoRatio)
	}
	if m.MaxDrawdown != 0 || m.CalmarRatio != 0 {
		t.Fatalf("monotonic equity has no drawdown, got %+v", m)
	}
}

func TestMetricsMarshalInfProfitFactor(t *testing.T) {
	m := Metrics{ProfitFactor: math.Inf(1)}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"profitFactor":"inf"`) {
		t.Fatalf("expected inf sentinel in JSON, got %s", data)
	}

	m.ProfitFactor = 2.5
	data, err = json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal finite: %v", err)
	}
	if !strings.Contains(string(data), `"profitFactor":2.5`) {
		t.Fatalf("expected numeric profit factor, got %s", data)
	}
}
