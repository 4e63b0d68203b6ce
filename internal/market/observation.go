// Package market defines the observation data model shared by every layer.
package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData reports that a series is shorter than the minimum an
// operation requires. Callers can match it with errors.Is.
var ErrInsufficientData = errors.New("insufficient data")

// Observation is a single market sample. Bid/ask volumes and OHLC are
// optional; nil means the upstream source did not provide them. Observations
// are owned by the caller and never mutated by the core.
type Observation struct {
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
	Price     float64  `json:"price" yaml:"price"`
	Volume    float64  `json:"volume" yaml:"volume"`
	BidVolume *float64 `json:"bidVolume,omitempty" yaml:"bid_volume,omitempty"`
	AskVolume *float64 `json:"askVolume,omitempty" yaml:"ask_volume,omitempty"`
	High      *float64 `json:"high,omitempty" yaml:"high,omitempty"`
	Low       *float64 `json:"low,omitempty" yaml:"low,omitempty"`
	Open      *float64 `json:"open,omitempty" yaml:"open,omitempty"`
	Close     *float64 `json:"close,omitempty" yaml:"close,omitempty"`
}

// HasBook reports whether both sides of the order-book split are present.
func (o Observation) HasBook() bool {
	return o.BidVolume != nil && o.AskVolume != nil
}

// HasRange reports whether the intrabar high/low pair is present.
func (o Observation) HasRange() bool {
	return o.High != nil && o.Low != nil
}

// Validate checks the structural preconditions for a single sample.
func (o Observation) Validate() error {
	if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) || o.Price <= 0 {
		return fmt.Errorf("observation at ts=%d: price must be a positive finite number, got %v", o.Timestamp, o.Price)
	}
	if math.IsNaN(o.Volume) || math.IsInf(o.Volume, 0) || o.Volume < 0 {
		return fmt.Errorf("observation at ts=%d: volume must be a non-negative finite number, got %v", o.Timestamp, o.Volume)
	}
	for name, v := range map[string]*float64{
		"bidVolume": o.BidVolume, "askVolume": o.AskVolume,
		"high": o.High, "low": o.Low, "open": o.Open, "close": o.Close,
	} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("observation at ts=%d: %s is not finite", o.Timestamp, name)
		}
	}
	return nil
}

// ValidateSeries checks that a series holds at least min samples, that each
// sample is structurally valid, and that timestamps never move backwards.
func ValidateSeries(observations []Observation, min int) error {
	if len(observations) < min {
		return fmt.Errorf("%w: need at least %d observations, got %d", ErrInsufficientData, min, len(observations))
	}
	for i, o := range observations {
		if err := o.Validate(); err != nil {
			return err
		}
		if i > 0 && o.Timestamp < observations[i-1].Timestamp {
			return fmt.Errorf("observation at index %d: timestamp %d precedes %d", i, o.Timestamp, observations[i-1].Timestamp)
		}
	}
	return nil
}

// TimeSpan returns the distance between the first and last timestamps.
func TimeSpan(observations []Observation) int64 {
	if len(observations) < 2 {
		return 0
	}
	return observations[len(observations)-1].Timestamp - observations[0].Timestamp
}

// Float64Ptr is a convenience for building observations with optional fields.
func Float64Ptr(v float64) *float64 { return &v }
