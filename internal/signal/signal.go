// Package signal turns aggregate field statistics into directional trading
// signals, reversal verdicts, and entry-timing recommendations. All functions
// are pure; qualitative levels route through explicit lookup tables so the
// boundary behavior stays testable.
package signal

import (
	"fmt"

	"flowfield-go/internal/field"
)

// Verdict is the directional call produced by Classify.
type Verdict string

const (
	StrongBuy  Verdict = "STRONG_BUY"
	Buy        Verdict = "BUY"
	Neutral    Verdict = "NEUTRAL"
	Sell       Verdict = "SELL"
	StrongSell Verdict = "STRONG_SELL"
)

// IsBuy reports whether the verdict opens or supports a long.
func (v Verdict) IsBuy() bool { return v == Buy || v == StrongBuy }

// IsSell reports whether the verdict opens or supports a short.
func (v Verdict) IsSell() bool { return v == Sell || v == StrongSell }

// Classification bundles a verdict with its confidence and the reasons that
// produced it.
type Classification struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// ScoreResult is the outcome of enriching a base signal score with field
// statistics.
type ScoreResult struct {
	EnhancedScore        float64 `json:"enhancedScore"`
	Boost                float64 `json:"boost"`
	ConfidenceMultiplier float64 `json:"confidenceMultiplier"`
	RiskMultiplier       float64 `json:"riskMultiplier"`
}

// Lookup tables keyed by turbulence level. Chaos earns a score penalty,
// shrinks confidence, and widens stops.
var (
	turbulenceBoost = map[field.TurbulenceLevel]float64{
		field.TurbulenceLow:     15,
		field.TurbulenceMedium:  5,
		field.TurbulenceHigh:    -10,
		field.TurbulenceExtreme: -20,
	}
	confidenceMultiplier = map[field.TurbulenceLevel]float64{
		field.TurbulenceLow:     1.2,
		field.TurbulenceMedium:  1.0,
		field.TurbulenceHigh:    0.8,
		field.TurbulenceExtreme: 0.5,
	}
	riskMultiplier = map[field.TurbulenceLevel]float64{
		field.TurbulenceLow:     0.8,
		field.TurbulenceMedium:  1.0,
		field.TurbulenceHigh:    1.3,
		field.TurbulenceExtreme: 1.5,
	}
)

const (
	baseConfidence       = 50.0
	minConfidence        = 10.0
	strongConfidenceCap  = 95.0
	regularConfidenceCap = 85.0
	strongForceRatio     = 1.3
	elevatedForceRatio   = 1.2
)

// Score applies the additive enrichment rule to a base score and reports the
// turbulence-keyed confidence and stop-width multipliers alongside.
func Score(baseScore float64, snapshot *field.Snapshot) ScoreResult {
	boost, _ := scoreBoost(snapshot)
	return ScoreResult{
		EnhancedScore:        clamp(baseScore+boost, 0, 100),
		Boost:                boost,
		ConfidenceMultiplier: confidenceMultiplier[snapshot.TurbulenceLevel],
		RiskMultiplier:       riskMultiplier[snapshot.TurbulenceLevel],
	}
}

// scoreBoost computes the additive score components and their explanations.
func scoreBoost(s *field.Snapshot) (float64, []string) {
	var boost float64
	var reasons []string

	if s.LatestForce > elevatedForceRatio*s.AverageForce {
		boost += 10
		reasons = append(reasons, fmt.Sprintf("latest force %.6f exceeds 1.2x average %.6f", s.LatestForce, s.AverageForce))
	}
	boost += turbulenceBoost[s.TurbulenceLevel]
	reasons = append(reasons, fmt.Sprintf("%s turbulence (%.8f)", s.TurbulenceLevel, s.Turbulence))

	if trendAligned(s) {
		boost += 10
		reasons = append(reasons, fmt.Sprintf("pressure trend %s aligns with %s direction", s.PressureTrend, s.DominantDirection))
	}
	switch s.EnergyTrend {
	case field.EnergyAccelerating:
		boost += 8
		reasons = append(reasons, "energy accelerating")
	case field.EnergyDecelerating:
		boost -= 8
		reasons = append(reasons, "energy decelerating")
	}
	return boost, reasons
}

func trendAligned(s *field.Snapshot) bool {
	return (s.PressureTrend == field.TrendRising && s.DominantDirection == field.DirectionBullish) ||
		(s.PressureTrend == field.TrendFalling && s.DominantDirection == field.DirectionBearish)
}

// Classify issues a directional verdict. A strong setup needs a dominant
// direction, latest force at 1.3x the average, and calm-to-moderate
// turbulence; with accelerating energy it upgrades to STRONG_BUY/STRONG_SELL.
// A dominant direction under calm turbulence without the force spike still
// earns a plain BUY/SELL, so steady trends are tradable and the confidence
// gate stays meaningful. Extreme turbulence forces NEUTRAL regardless of
// everything else.
func Classify(snapshot *field.Snapshot) Classification {
	if snapshot.TurbulenceLevel == field.TurbulenceExtreme {
		return Classification{
			Verdict:    Neutral,
			Confidence: clamp(baseConfidence*confidenceMultiplier[field.TurbulenceExtreme], minConfidence, 100),
			Reasons:    []string{fmt.Sprintf("extreme turbulence (%.8f) suppresses signal", snapshot.Turbulence)},
		}
	}

	calm := snapshot.TurbulenceLevel == field.TurbulenceLow || snapshot.TurbulenceLevel == field.TurbulenceMedium
	if snapshot.DominantDirection == field.DirectionNeutral || !calm {
		return Classification{
			Verdict:    Neutral,
			Confidence: baseConfidence,
			Reasons:    []string{"no dominant setup"},
		}
	}

	boost, reasons := scoreBoost(snapshot)
	strong := snapshot.LatestForce >= strongForceRatio*snapshot.AverageForce
	accelerating := snapshot.EnergyTrend == field.EnergyAccelerating
	ceiling := regularConfidenceCap
	if strong && accelerating {
		ceiling = strongConfidenceCap
	}

	verdict := Buy
	switch {
	case snapshot.DominantDirection == field.DirectionBullish && strong && accelerating:
		verdict = StrongBuy
	case snapshot.DominantDirection == field.DirectionBearish && strong && accelerating:
		verdict = StrongSell
	case snapshot.DominantDirection == field.DirectionBearish:
		verdict = Sell
	}
	return Classification{
		Verdict:    verdict,
		Confidence: clamp(baseConfidence+boost, minConfidence, ceiling),
		Reasons:    reasons,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
