package signal

import (
	"testing"

	"flowfield-go/internal/field"
)

func calmSnapshot() *field.Snapshot {
	return &field.Snapshot{
		LatestForce:       0.001,
		AverageForce:      0.001,
		TurbulenceLevel:   field.TurbulenceLow,
		PressureTrend:     field.TrendStable,
		EnergyTrend:       field.EnergyStable,
		DominantDirection: field.DirectionNeutral,
	}
}

func TestScoreTurbulenceTable(t *testing.T) {
	cases := []struct {
		level field.TurbulenceLevel
		boost float64
		conf  float64
		risk  float64
	}{
		{field.TurbulenceLow, 15, 1.2, 0.8},
		{field.TurbulenceMedium, 5, 1.0, 1.0},
		{field.TurbulenceHigh, -10, 0.8, 1.3},
		{field.TurbulenceExtreme, -20, 0.5, 1.5},
	}
	for _, tc := range cases {
		snap := calmSnapshot()
		snap.TurbulenceLevel = tc.level
		result := Score(50, snap)
		if result.Boost != tc.boost {
			t.Fatalf("%s: expected boost %v, got %v", tc.level, tc.boost, result.Boost)
		}
		if result.ConfidenceMultiplier != tc.conf {
			t.Fatalf("%s: expected confidence multiplier %v, got %v", tc.level, tc.conf, result.ConfidenceMultiplier)
		}
		if result.RiskMultiplier != tc.risk {
			t.Fatalf("%s: expected risk multiplier %v, got %v", tc.level, tc.risk, result.RiskMultiplier)
		}
	}
}

func TestScoreAdditiveComponents(t *testing.T) {
	snap := calmSnapshot()
	snap.LatestForce = 0.0013 // > 1.2x average
	snap.PressureTrend = field.TrendRising
	snap.DominantDirection = field.DirectionBullish
	snap.EnergyTrend = field.EnergyAccelerating

	// +10 force, +15 low turbulence, +10 alignment, +8 accelerating.
	result := Score(50, snap)
	if result.Boost != 43 {
		t.Fatalf("expected boost 43, got %v", result.Boost)
	}
	if result.EnhancedScore != 93 {
		t.Fatalf("expected enhanced score 93, got %v", result.EnhancedScore)
	}
}

func TestScoreClamped(t *testing.T) {
	snap := calmSnapshot()
	snap.LatestForce = 0.002
	snap.PressureTrend = field.TrendRising
	snap.DominantDirection = field.DirectionBullish
	snap.EnergyTrend = field.EnergyAccelerating
	if got := Score(90, snap).EnhancedScore; got != 100 {
		t.Fatalf("expected score clamped to 100, got %v", got)
	}

	snap = calmSnapshot()
	snap.TurbulenceLevel = field.TurbulenceExtreme
	snap.EnergyTrend = field.EnergyDecelerating
	if got := Score(5, snap).EnhancedScore; got != 0 {
		t.Fatalf("expected score clamped to 0, got %v", got)
	}
}

func TestClassifyExtremeForcesNeutral(t *testing.T) {
	snap := calmSnapshot()
	snap.TurbulenceLevel = field.TurbulenceExtreme
	snap.DominantDirection = field.DirectionBullish
	snap.LatestForce = 1
	snap.AverageForce = 0.1
	snap.EnergyTrend = field.EnergyAccelerating

	got := Classify(snap)
	if got.Verdict != Neutral {
		t.Fatalf("extreme turbulence must force NEUTRAL, got %s", got.Verdict)
	}
	if got.Confidence < 10 || got.Confidence >= 50 {
		t.Fatalf("extreme turbulence should reduce confidence below base, got %v", got.Confidence)
	}
}

func TestClassifyStrongBuy(t *testing.T) {
	snap := calmSnapshot()
	snap.DominantDirection = field.DirectionBullish
	snap.LatestForce = 0.0015 // >= 1.3x average
	snap.PressureTrend = field.TrendRising
	snap.EnergyTrend = field.EnergyAccelerating

	got := Classify(snap)
	if got.Verdict != StrongBuy {
		t.Fatalf("expected STRONG_BUY, got %s", got.Verdict)
	}
	if got.Confidence > 95 {
		t.Fatalf("strong confidence capped at 95, got %v", got.Confidence)
	}
	if len(got.Reasons) == 0 {
		t.Fatal("expected reasons on a strong verdict")
	}
}

func TestClassifyStrongSell(t *testing.T) {
	snap := calmSnapshot()
	snap.DominantDirection = field.DirectionBearish
	snap.LatestForce = 0.002
	snap.PressureTrend = field.TrendFalling
	snap.EnergyTrend = field.EnergyAccelerating

	if got := Classify(snap); got.Verdict != StrongSell {
		t.Fatalf("expected STRONG_SELL, got %s", got.Verdict)
	}
}

func TestClassifyPlainBuyWithoutForceSpike(t *testing.T) {
	snap := calmSnapshot()
	snap.DominantDirection = field.DirectionBullish

	got := Classify(snap)
	if got.Verdict != Buy {
		t.Fatalf("steady bullish trend should classify BUY, got %s", got.Verdict)
	}
	if got.Confidence > 85 {
		t.Fatalf("non-strong confidence capped at 85, got %v", got.Confidence)
	}
	if got.Confidence < 60 {
		t.Fatalf("calm bullish trend should clear a 60 gate, got %v", got.Confidence)
	}
}

func TestClassifySellWithHighTurbulenceIsNeutral(t *testing.T) {
	snap := calmSnapshot()
	snap.DominantDirection = field.DirectionBearish
	snap.TurbulenceLevel = field.TurbulenceHigh
	snap.LatestForce = 1
	snap.AverageForce = 0.1

	got := Classify(snap)
	if got.Verdict != Neutral {
		t.Fatalf("high turbulence blocks directional verdicts, got %s", got.Verdict)
	}
	if got.Confidence != 50 {
		t.Fatalf("fall-through keeps base confidence, got %v", got.Confidence)
	}
}

func TestVerdictHelpers(t *testing.T) {
	if !StrongBuy.IsBuy() || !Buy.IsBuy() || Sell.IsBuy() {
		t.Fatal("IsBuy misclassifies")
	}
	if !StrongSell.IsSell() || !Sell.IsSell() || Buy.IsSell() {
		t.Fatal("IsSell misclassifies")
	}
	if Neutral.IsBuy() || Neutral.IsSell() {
		t.Fatal("NEUTRAL is directionless")
	}
}

func TestClampBounds(t *testing.T) {
	if clamp(-5, 0, 100) != 0 || clamp(105, 0, 100) != 100 || clamp(42, 0, 100) != 42 {
		t.Fatal("clamp misbehaves")
	}
}
