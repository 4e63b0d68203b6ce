// Package field converts ordered market observations into a physics-flavored
// description of market dynamics: per-step force vectors plus aggregate
// pressure, turbulence, and energy-gradient statistics. Everything here is a
// pure function of its inputs; callers own the observation slices.
package field

import (
	"fmt"
	"math"

	"flowfield-go/internal/market"
)

// Force is the vector derived from one consecutive observation pair. FX is
// volume-weighted price momentum, FY is order-flow imbalance (0 when the book
// split is absent).
type Force struct {
	Timestamp int64   `json:"timestamp"`
	FX        float64 `json:"fx"`
	FY        float64 `json:"fy"`
	Magnitude float64 `json:"magnitude"`
	Angle     float64 `json:"angle"`
}

// Snapshot aggregates the force field over a full observation window.
type Snapshot struct {
	LatestForce  float64 `json:"latestForce"`
	AverageForce float64 `json:"averageForce"`
	MaxForce     float64 `json:"maxForce"`
	ForceAngle   float64 `json:"forceAngle"`

	LatestPressure  float64 `json:"latestPressure"`
	AveragePressure float64 `json:"averagePressure"`
	PressureTrend   Trend   `json:"pressureTrend"`

	Turbulence      float64         `json:"turbulence"`
	TurbulenceLevel TurbulenceLevel `json:"turbulenceLevel"`

	EnergyGradient float64     `json:"energyGradient"`
	EnergyTrend    EnergyTrend `json:"energyTrend"`

	DominantDirection Direction `json:"dominantDirection"`

	Vectors    []Force `json:"vectors"`
	PointCount int     `json:"pointCount"`
	TimeSpan   int64   `json:"timeSpan"`
}

// Trend comparison thresholds. Pressure moves are judged coarser than
// gradient moves because pressure accumulates absolute components.
const (
	trendLookback     = 5
	pressureTrendEps  = 0.01
	gradientTrendEps  = 0.001
	bullishMajority   = 0.6
	bearishMajority   = 0.4
	minVolumeDividend = 1.0
)

// Compute derives the force field for a window of at least two observations.
// It returns market.ErrInsufficientData on shorter input and fails rather
// than emitting NaN or infinite aggregates.
func Compute(observations []market.Observation, cfg Config) (*Snapshot, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("field config: %w", err)
	}
	if err := market.ValidateSeries(observations, 2); err != nil {
		return nil, fmt.Errorf("compute field: %w", err)
	}

	vectors := make([]Force, 0, len(observations)-1)
	rawPressure := make([]float64, 0, len(observations)-1)
	for i := 1; i < len(observations); i++ {
		prev, curr := observations[i-1], observations[i]

		// prev.Price > 0 is guaranteed by series validation; volume may be
		// zero, so the weight denominator is clamped to 1.
		priceChange := (curr.Price - prev.Price) / prev.Price
		volumeWeight := curr.Volume / math.Max(prev.Volume, minVolumeDividend)

		imbalance := 0.0
		if curr.HasBook() {
			bid, ask := *curr.BidVolume, *curr.AskVolume
			if total := bid + ask; total > 0 {
				imbalance = (bid - ask) / total
			}
		}

		volatility := 0.0
		if curr.HasRange() {
			volatility = (*curr.High - *curr.Low) / curr.Price
		}

		fx := priceChange * volumeWeight
		fy := imbalance
		vectors = append(vectors, Force{
			Timestamp: curr.Timestamp,
			FX:        fx,
			FY:        fy,
			Magnitude: math.Hypot(fx, fy),
			Angle:     math.Atan2(fy, fx),
		})
		rawPressure = append(rawPressure, math.Abs(fx)+math.Abs(fy)+volatility)
	}

	smoothed := movingAverage(rawPressure, cfg.PressureSmoothingPeriod)
	gradients := energyGradients(smoothed, cfg.EnergyGradientSensitivity)

	magnitudes := make([]float64, len(vectors))
	for i, v := range vectors {
		magnitudes[i] = v.Magnitude
	}
	turbulence := populationVariance(magnitudes)

	latest := vectors[len(vectors)-1]
	snapshot := &Snapshot{
		LatestForce:       latest.Magnitude,
		AverageForce:      mean(magnitudes),
		MaxForce:          maxOf(magnitudes),
		ForceAngle:        latest.Angle,
		LatestPressure:    smoothed[len(smoothed)-1],
		AveragePressure:   mean(smoothed),
		PressureTrend:     pressureTrend(smoothed),
		Turbulence:        turbulence,
		TurbulenceLevel:   classifyTurbulence(turbulence, cfg.TurbulenceThresholds),
		EnergyGradient:    latestGradient(gradients),
		EnergyTrend:       energyTrend(gradients),
		DominantDirection: dominantDirection(vectors),
		Vectors:           vectors,
		PointCount:        len(observations),
		TimeSpan:          market.TimeSpan(observations),
	}
	if err := snapshot.checkFinite(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Snapshot) checkFinite() error {
	scalars := map[string]float64{
		"latestForce":     s.LatestForce,
		"averageForce":    s.AverageForce,
		"maxForce":        s.MaxForce,
		"forceAngle":      s.ForceAngle,
		"latestPressure":  s.LatestPressure,
		"averagePressure": s.AveragePressure,
		"turbulence":      s.Turbulence,
		"energyGradient":  s.EnergyGradient,
	}
	for name, v := range scalars {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("field computation produced non-finite %s (%v)", name, v)
		}
	}
	return nil
}

// movingAverage returns the trailing simple moving average; leading entries
// average the partial window available so the output keeps the input length.
func movingAverage(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
			out[i] = sum / float64(period)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

func energyGradients(smoothed []float64, sensitivity float64) []float64 {
	if len(smoothed) < 2 {
		return nil
	}
	out := make([]float64, len(smoothed)-1)
	for i := 1; i < len(smoothed); i++ {
		out[i-1] = math.Abs(smoothed[i]-smoothed[i-1]) * sensitivity
	}
	return out
}

func latestGradient(gradients []float64) float64 {
	if len(gradients) == 0 {
		return 0
	}
	return gradients[len(gradients)-1]
}

// pressureTrend compares the first and last of the most recent 5 smoothed
// pressure values.
func pressureTrend(smoothed []float64) Trend {
	first, last, ok := recentEndpoints(smoothed, trendLookback)
	if !ok {
		return TrendStable
	}
	switch diff := last - first; {
	case diff > pressureTrendEps:
		return TrendRising
	case diff < -pressureTrendEps:
		return TrendFalling
	default:
		return TrendStable
	}
}

// energyTrend compares the first and last of the most recent 5 gradients.
func energyTrend(gradients []float64) EnergyTrend {
	first, last, ok := recentEndpoints(gradients, trendLookback)
	if !ok {
		return EnergyStable
	}
	switch diff := last - first; {
	case diff > gradientTrendEps:
		return EnergyAccelerating
	case diff < -gradientTrendEps:
		return EnergyDecelerating
	default:
		return EnergyStable
	}
}

func recentEndpoints(values []float64, n int) (first, last float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	if len(values) > n {
		values = values[len(values)-n:]
	}
	return values[0], values[len(values)-1], true
}

// dominantDirection classifies the majority sign of fx. Windows without a
// single nonzero fx stay neutral.
func dominantDirection(vectors []Force) Direction {
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
		return DirectionNeutral
	}
	switch ratio := float64(positive) / float64(total); {
	case ratio > bullishMajority:
		return DirectionBullish
	case ratio < bearishMajority:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
