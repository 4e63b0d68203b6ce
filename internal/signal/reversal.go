package signal

import (
	"fmt"

	"flowfield-go/internal/field"
	"flowfield-go/internal/market"
)

// ReversalType names the direction a detected reversal points toward.
type ReversalType string

const (
	ReversalBullish ReversalType = "bullish"
	ReversalBearish ReversalType = "bearish"
	ReversalNone    ReversalType = "none"
)

// Reversal is the exhaustion verdict over the recent window.
type Reversal struct {
	Detected bool         `json:"detected"`
	Type     ReversalType `json:"type"`
	Strength float64      `json:"strength"`
	Reasons  []string     `json:"reasons"`
}

const (
	reversalLookback    = 10
	reversalMinVectors  = 5
	pressureSpikeFactor = 2.0
)

// DetectReversal examines the last 10 force vectors and observations for
// exhaustion patterns. Below 5 of either it degrades gracefully to "no
// reversal" instead of failing.
//
// Bearish exhaustion: the recent regime is bearish, energy is decelerating,
// and turbulence runs high or extreme; that combination marks sellers losing
// steam and flags a bullish reversal. Bullish exhaustion mirrors it: a
// bullish regime decelerating while pressure spikes past twice its average
// flags a bearish reversal.
func DetectReversal(snapshot *field.Snapshot, observations []market.Observation) Reversal {
	none := Reversal{Detected: false, Type: ReversalNone}
	if snapshot == nil || len(snapshot.Vectors) < reversalMinVectors || len(observations) < reversalMinVectors {
		return none
	}

	recent := snapshot.Vectors
	if len(recent) > reversalLookback {
		recent = recent[len(recent)-reversalLookback:]
	}
	direction := recentDirection(recent)
	decelerating := snapshot.EnergyTrend == field.EnergyDecelerating
	turbulent := snapshot.TurbulenceLevel == field.TurbulenceHigh || snapshot.TurbulenceLevel == field.TurbulenceExtreme

	if direction == field.DirectionBearish && decelerating && turbulent {
		return Reversal{
			Detected: true,
			Type:     ReversalBullish,
			Strength: snapshot.Turbulence * 1000,
			Reasons: []string{
				"bearish force decelerating under elevated turbulence",
				fmt.Sprintf("turbulence %.8f at level %s", snapshot.Turbulence, snapshot.TurbulenceLevel),
			},
		}
	}
	if direction == field.DirectionBullish && decelerating &&
		snapshot.LatestPressure > pressureSpikeFactor*snapshot.AveragePressure {
		return Reversal{
			Detected: true,
			Type:     ReversalBearish,
			Strength: snapshot.LatestPressure * 10,
			Reasons: []string{
				"bullish force decelerating into a pressure spike",
				fmt.Sprintf("pressure %.6f exceeds 2x average %.6f", snapshot.LatestPressure, snapshot.AveragePressure),
			},
		}
	}
	return none
}

// recentDirection reapplies the majority-sign rule to just the recent
// vectors so the verdict reflects the current regime, not the whole window.
func recentDirection(vectors []field.Force) field.Direction {
	var positive, negative int
	for _, v := range vectors {
		switch {
		case v.FX > 0:
			positive++
		case v.FX < 0:
			negative++
		}
	}
	total := positive + negative
	if total == 0 {
		return field.DirectionNeutral
	}
	switch ratio := float64(positive) / float64(total); {
	case ratio > 0.6:
		return field.DirectionBullish
	case ratio < 0.4:
		return field.DirectionBearish
	default:
		return field.DirectionNeutral
	}
}
