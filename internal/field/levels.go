package field

// TurbulenceLevel buckets the variance of force magnitudes.
type TurbulenceLevel string

const (
	TurbulenceLow     TurbulenceLevel = "low"
	TurbulenceMedium  TurbulenceLevel = "medium"
	TurbulenceHigh    TurbulenceLevel = "high"
	TurbulenceExtreme TurbulenceLevel = "extreme"
)

// Trend describes the direction of the smoothed pressure series.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// EnergyTrend describes whether market stress is speeding up or bleeding off.
type EnergyTrend string

const (
	EnergyAccelerating EnergyTrend = "accelerating"
	EnergyDecelerating EnergyTrend = "decelerating"
	EnergyStable       EnergyTrend = "stable"
)

// Direction is the majority sign of fx over a window.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// classifyTurbulence maps a variance onto a level using ascending thresholds:
// at/under Low is low, up to Medium is medium, up to High is high, above is
// extreme.
func classifyTurbulence(variance float64, t TurbulenceThresholds) TurbulenceLevel {
	switch {
	case variance <= t.Low:
		return TurbulenceLow
	case variance <= t.Medium:
		return TurbulenceMedium
	case variance <= t.High:
		return TurbulenceHigh
	default:
		return TurbulenceExtreme
	}
}
