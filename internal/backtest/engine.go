// Package backtest replays the field computation and signal classification
// over history, simulating a single-position trading account to measure how
// the method would have performed. The replay is deterministic: the same
// observations and config always yield a bit-identical report.
package backtest

import (
	"fmt"

	"flowfield-go/internal/field"
	"flowfield-go/internal/market"
	"flowfield-go/internal/signal"
)

// TradeDirection is the side of a simulated position.
type TradeDirection string

const (
	DirectionLong  TradeDirection = "long"
	DirectionShort TradeDirection = "short"
)

// ExitReason records why a position was closed. The engine checks exits in
// the declared priority: stop loss, take profit, opposite signal, timeout.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitSignal     ExitReason = "signal_exit"
	ExitTimeout    ExitReason = "timeout"
)

// FieldContext is the compact snapshot of field statistics active at entry,
// kept on every trade for post-hoc attribution.
type FieldContext struct {
	LatestForce       float64               `json:"latestForce"`
	AverageForce      float64               `json:"averageForce"`
	Turbulence        float64               `json:"turbulence"`
	TurbulenceLevel   field.TurbulenceLevel `json:"turbulenceLevel"`
	PressureTrend     field.Trend           `json:"pressureTrend"`
	EnergyTrend       field.EnergyTrend     `json:"energyTrend"`
	DominantDirection field.Direction       `json:"dominantDirection"`
	Confidence        float64               `json:"confidence"`
}

// Trade is a closed position moved into the report's history.
type Trade struct {
	Direction  TradeDirection `json:"direction"`
	EntryTime  int64          `json:"entryTime"`
	ExitTime   int64          `json:"exitTime"`
	EntryPrice float64        `json:"entryPrice"`
	ExitPrice  float64        `json:"exitPrice"`
	Size       float64        `json:"size"`
	PnL        float64        `json:"pnl"`
	Commission float64        `json:"commission"`
	ExitReason ExitReason     `json:"exitReason"`
	Entry      FieldContext   `json:"entry"`
}

// EquityPoint is one sample of the simulated account value.
type EquityPoint struct {
	Timestamp int64   `json:"timestamp"`
	Equity    float64 `json:"equity"`
}

// DrawdownPoint is the peak-to-current equity decline at one step, as a
// fraction of the peak.
type DrawdownPoint struct {
	Timestamp int64   `json:"timestamp"`
	Drawdown  float64 `json:"drawdown"`
}

// Report is the full outcome of a simulation run.
type Report struct {
	Trades        []Trade         `json:"trades"`
	EquityCurve   []EquityPoint   `json:"equityCurve"`
	DrawdownCurve []DrawdownPoint `json:"drawdownCurve"`
	Metrics       Metrics         `json:"metrics"`
	InitialCapital float64        `json:"initialCapital"`
	FinalCapital   float64        `json:"finalCapital"`
}

// position is the engine's single mutable open trade.
type position struct {
	direction       TradeDirection
	entryTime       int64
	entryPrice      float64
	size            float64
	entryCommission float64
	entry           FieldContext
}

// Run replays the observation series. Each step recomputes the field over
// the trailing WindowSize observations only, so decisions never see the
// future. Returns market.ErrInsufficientData when the series is shorter than
// one full window.
func Run(observations []market.Observation, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest config: %w", err)
	}
	if len(observations) < cfg.WindowSize {
		return nil, fmt.Errorf("%w: backtest needs at least windowSize=%d observations, got %d",
			market.ErrInsufficientData, cfg.WindowSize, len(observations))
	}

	capital := cfg.InitialCapital
	var open *position
	var trades []Trade
	steps := len(observations) - cfg.WindowSize + 1
	equityCurve := make([]EquityPoint, 0, steps)
	drawdownCurve := make([]DrawdownPoint, 0, steps)
	peak := capital

	for i := cfg.WindowSize - 1; i < len(observations); i++ {
		window := observations[i-cfg.WindowSize+1 : i+1]
		snapshot, err := field.Compute(window, cfg.Field)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		verdict := signal.Classify(snapshot)

		obs := observations[i]
		last := i == len(observations)-1

		if open != nil {
			if trade, ok := checkExit(open, obs, verdict.Verdict, cfg, last); ok {
				trades = append(trades, trade)
				capital += trade.PnL
				open = nil
			}
		} else if !last && verdict.Confidence >= cfg.MinConfidence {
			// A position closed this step is only eligible again next step,
			// and nothing opens on the final observation.
			switch {
			case verdict.Verdict.IsBuy():
				open = enter(DirectionLong, obs, snapshot, verdict, capital, cfg)
			case verdict.Verdict.IsSell():
				open = enter(DirectionShort, obs, snapshot, verdict, capital, cfg)
			}
		}

		equity := capital
		if open != nil {
			equity += unrealized(open, obs.Price)
		}
		if equity > peak {
			peak = equity
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - equity) / peak
		}
		equityCurve = append(equityCurve, EquityPoint{Timestamp: obs.Timestamp, Equity: equity})
		drawdownCurve = append(drawdownCurve, DrawdownPoint{Timestamp: obs.Timestamp, Drawdown: dd})
	}

	report := &Report{
		Trades:         trades,
		EquityCurve:    equityCurve,
		DrawdownCurve:  drawdownCurve,
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   capital,
	}
	report.Metrics = computeMetrics(trades, equityCurve, cfg.InitialCapital)
	return report, nil
}

// enter opens a position, paying slippage against the trader and deducting
// the entry commission from the deployed notional.
func enter(dir TradeDirection, obs market.Observation, snapshot *field.Snapshot, verdict signal.Classification, capital float64, cfg Config) *position {
	price := obs.Price * (1 + cfg.Slippage)
	if dir == DirectionShort {
		price = obs.Price * (1 - cfg.Slippage)
	}
	notional := capital * cfg.PositionSize
	commission := notional * cfg.Commission
	size := (notional - commission) / price
	if size <= 0 {
		return nil
	}
	return &position{
		direction:       dir,
		entryTime:       obs.Timestamp,
		entryPrice:      price,
		size:            size,
		entryCommission: commission,
		entry: FieldContext{
			LatestForce:       snapshot.LatestForce,
			AverageForce:      snapshot.AverageForce,
			Turbulence:        snapshot.Turbulence,
			TurbulenceLevel:   snapshot.TurbulenceLevel,
			PressureTrend:     snapshot.PressureTrend,
			EnergyTrend:       snapshot.EnergyTrend,
			DominantDirection: snapshot.DominantDirection,
			Confidence:        verdict.Confidence,
		},
	}
}

// checkExit applies the exit rules in priority order. When last is set the
// position always closes, with timeout as the fallback reason.
func checkExit(p *position, obs market.Observation, verdict signal.Verdict, cfg Config, last bool) (Trade, bool) {
	price := obs.Price
	move := (price - p.entryPrice) / p.entryPrice
	adverse, favorable := -move, move
	if p.direction == DirectionShort {
		adverse, favorable = move, -move
	}

	switch {
	case adverse >= cfg.StopLossPercent:
		return closeOut(p, obs, cfg, ExitStopLoss), true
	case favorable >= cfg.TakeProfitPercent:
		return closeOut(p, obs, cfg, ExitTakeProfit), true
	case p.direction == DirectionLong && verdict.IsSell(),
		p.direction == DirectionShort && verdict.IsBuy():
		return closeOut(p, obs, cfg, ExitSignal), true
	case last:
		return closeOut(p, obs, cfg, ExitTimeout), true
	}
	return Trade{}, false
}

// closeOut realizes the position. Both commission legs are charged against
// the PnL so the capital delta agrees with Trade.Commission.
func closeOut(p *position, obs market.Observation, cfg Config, reason ExitReason) Trade {
	exitCommission := p.size * obs.Price * cfg.Commission
	delta := obs.Price - p.entryPrice
	if p.direction == DirectionShort {
		delta = p.entryPrice - obs.Price
	}
	return Trade{
		Direction:  p.direction,
		EntryTime:  p.entryTime,
		ExitTime:   obs.Timestamp,
		EntryPrice: p.entryPrice,
		ExitPrice:  obs.Price,
		Size:       p.size,
		PnL:        delta*p.size - p.entryCommission - exitCommission,
		Commission: p.entryCommission + exitCommission,
		ExitReason: reason,
		Entry:      p.entry,
	}
}

func unrealized(p *position, price float64) float64 {
	if p.direction == DirectionShort {
		return (p.entryPrice - price) * p.size
	}
	return (price - p.entryPrice) * p.size
}
