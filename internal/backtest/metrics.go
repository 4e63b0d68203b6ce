package backtest

import (
	"encoding/json"
	"math"
)

// annualization factor for per-step return ratios (trading days per year).
const annualizationSteps = 252

// Metrics are the derived trade-level and portfolio-level statistics.
// AverageWin/AverageLoss/LargestLoss are magnitudes (always >= 0).
// ProfitFactor is +Inf when there are wins and no losses.
type Metrics struct {
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`

	TotalPnL      float64 `json:"totalPnl"`
	ReturnPercent float64 `json:"returnPercent"`
	AverageWin    float64 `json:"averageWin"`
	AverageLoss   float64 `json:"averageLoss"`
	LargestWin    float64 `json:"largestWin"`
	LargestLoss   float64 `json:"largestLoss"`
	ProfitFactor  float64 `json:"profitFactor"`

	MaxDrawdown        float64 `json:"maxDrawdown"`
	MaxDrawdownPercent float64 `json:"maxDrawdownPercent"`
	SharpeRatio        float64 `json:"sharpeRatio"`
	SortinoRatio       float64 `json:"sortinoRatio"`
	CalmarRatio        float64 `json:"calmarRatio"`

	// Attribution: field statistics at entry, split by outcome, to check
	// whether the method's own signals correlate with results.
	WinnerAvgForce      float64 `json:"winnerAvgForce"`
	WinnerAvgTurbulence float64 `json:"winnerAvgTurbulence"`
	LoserAvgForce       float64 `json:"loserAvgForce"`
	LoserAvgTurbulence  float64 `json:"loserAvgTurbulence"`
}

// MarshalJSON renders the +Inf profit-factor sentinel as the string "inf";
// JSON has no representation for infinity.
func (m Metrics) MarshalJSON() ([]byte, error) {
	type alias Metrics
	payload := struct {
		alias
		ProfitFactor any `json:"profitFactor"`
	}{alias: alias(m), ProfitFactor: m.ProfitFactor}
	if math.IsInf(m.ProfitFactor, 1) {
		payload.ProfitFactor = "inf"
	}
	return json.Marshal(payload)
}

func computeMetrics(trades []Trade, equity []EquityPoint, initialCapital float64) Metrics {
	m := Metrics{TotalTrades: len(trades)}

	var grossWins, grossLosses float64
	var winForce, winTurb, lossForce, lossTurb float64
	for _, t := range trades {
		m.TotalPnL += t.PnL
		if t.PnL > 0 {
			m.WinningTrades++
			grossWins += t.PnL
			if t.PnL > m.LargestWin {
				m.LargestWin = t.PnL
			}
			winForce += t.Entry.LatestForce
			winTurb += t.Entry.Turbulence
		} else {
			m.LosingTrades++
			grossLosses += -t.PnL
			if -t.PnL > m.LargestLoss {
				m.LargestLoss = -t.PnL
			}
			lossForce += t.Entry.LatestForce
			lossTurb += t.Entry.Turbulence
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}
	if m.WinningTrades > 0 {
		m.AverageWin = grossWins / float64(m.WinningTrades)
		m.WinnerAvgForce = winForce / float64(m.WinningTrades)
		m.WinnerAvgTurbulence = winTurb / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = grossLosses / float64(m.LosingTrades)
		m.LoserAvgForce = lossForce / float64(m.LosingTrades)
		m.LoserAvgTurbulence = lossTurb / float64(m.LosingTrades)
	}
	if initialCapital > 0 {
		m.ReturnPercent = m.TotalPnL / initialCapital * 100
	}

	switch {
	case grossLosses > 0:
		m.ProfitFactor = grossWins / grossLosses
	case grossWins > 0:
		m.ProfitFactor = math.Inf(1)
	}

	m.MaxDrawdown, m.MaxDrawdownPercent = maxDrawdown(equity)

	returns := stepReturns(equity)
	meanReturn := meanOf(returns)
	if std := stddev(returns, meanReturn); std > 0 {
		m.SharpeRatio = meanReturn / std * math.Sqrt(annualizationSteps)
	}
	if downside := downsideDeviation(returns); downside > 0 {
		m.SortinoRatio = meanReturn / downside * math.Sqrt(annualizationSteps)
	}
	if m.MaxDrawdownPercent > 0 {
		m.CalmarRatio = meanReturn * annualizationSteps / m.MaxDrawdownPercent
	}
	return m
}

// maxDrawdown tracks the running peak over the equity curve and returns the
// deepest decline in absolute terms and as a fraction of the peak.
func maxDrawdown(equity []EquityPoint) (abs, frac float64) {
	if len(equity) == 0 {
		return 0, 0
	}
	peak := equity[0].Equity
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := peak - p.Equity; dd > abs {
			abs = dd
			if peak > 0 {
				frac = dd / peak
			}
		}
	}
	return abs, frac
}

func stepReturns(equity []EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			continue
		}
		out = append(out, (equity[i].Equity-prev)/prev)
	}
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// downsideDeviation is the standard deviation of negative returns only.
func downsideDeviation(returns []float64) float64 {
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	return stddev(negative, meanOf(negative))
}
