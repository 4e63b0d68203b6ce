package backtest

import (
	"fmt"
	"math"
	"strings"
)

// Summary renders the report as a human-readable block of text. Presentation
// convenience only; the structured Report is the contract.
func (r *Report) Summary() string {
	m := r.Metrics
	var b strings.Builder

	fmt.Fprintf(&b, "Backtest: %d steps, %d trades\n", len(r.EquityCurve), m.TotalTrades)
	fmt.Fprintf(&b, "Capital:  %.2f -> %.2f (%+.2f%%)\n", r.InitialCapital, r.FinalCapital, m.ReturnPercent)
	fmt.Fprintf(&b, "Win rate: %.1f%% (%d W / %d L)\n", m.WinRate*100, m.WinningTrades, m.LosingTrades)
	if math.IsInf(m.ProfitFactor, 1) {
		b.WriteString("Profit factor: inf (no losing trades)\n")
	} else {
		fmt.Fprintf(&b, "Profit factor: %.2f\n", m.ProfitFactor)
	}
	fmt.Fprintf(&b, "Avg win/loss: %.2f / %.2f  Largest: %.2f / %.2f\n", m.AverageWin, m.AverageLoss, m.LargestWin, m.LargestLoss)
	fmt.Fprintf(&b, "Max drawdown: %.2f (%.2f%%)\n", m.MaxDrawdown, m.MaxDrawdownPercent*100)
	fmt.Fprintf(&b, "Sharpe %.2f  Sortino %.2f  Calmar %.2f\n", m.SharpeRatio, m.SortinoRatio, m.CalmarRatio)

	if m.WinningTrades > 0 && m.LosingTrades > 0 {
		fmt.Fprintf(&b, "Attribution: winners entered at force %.6f / turbulence %.8f, losers at %.6f / %.8f\n",
			m.WinnerAvgForce, m.WinnerAvgTurbulence, m.LoserAvgForce, m.LoserAvgTurbulence)
		if m.WinnerAvgTurbulence < m.LoserAvgTurbulence {
			b.WriteString("Insight: winners entered in calmer fields than losers\n")
		} else {
			b.WriteString("Insight: turbulence at entry did not separate winners from losers\n")
		}
	}

	reasons := map[ExitReason]int{}
	for _, t := range r.Trades {
		reasons[t.ExitReason]++
	}
	if len(reasons) > 0 {
		b.WriteString("Exits:")
		for _, reason := range []ExitReason{ExitStopLoss, ExitTakeProfit, ExitSignal, ExitTimeout} {
			if n := reasons[reason]; n > 0 {
				fmt.Fprintf(&b, " %s=%d", reason, n)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
