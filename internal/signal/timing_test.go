package signal

import (
	"testing"

	"flowfield-go/internal/field"
)

func TestEntryTimingBuckets(t *testing.T) {
	cases := []struct {
		name string
		snap field.Snapshot
		want WaitBucket
	}{
		{
			"immediate on strong calm accelerating",
			field.Snapshot{LatestForce: 0.0014, AverageForce: 0.001,
				TurbulenceLevel: field.TurbulenceLow, EnergyTrend: field.EnergyAccelerating},
			WaitImmediate,
		},
		{
			"short on above-average force in medium turbulence",
			field.Snapshot{LatestForce: 0.0011, AverageForce: 0.001,
				TurbulenceLevel: field.TurbulenceMedium, EnergyTrend: field.EnergyStable},
			WaitShort,
		},
		{
			"medium on high turbulence",
			field.Snapshot{LatestForce: 0.002, AverageForce: 0.001,
				TurbulenceLevel: field.TurbulenceHigh, EnergyTrend: field.EnergyStable},
			WaitMedium,
		},
		{
			"medium on fading force",
			field.Snapshot{LatestForce: 0.0007, AverageForce: 0.001,
				TurbulenceLevel: field.TurbulenceExtreme, EnergyTrend: field.EnergyStable},
			WaitMedium,
		},
		{
			"long otherwise",
			field.Snapshot{LatestForce: 0.0009, AverageForce: 0.001,
				TurbulenceLevel: field.TurbulenceExtreme, EnergyTrend: field.EnergyStable},
			WaitLong,
		},
	}
	for _, tc := range cases {
		got := EntryTiming(&tc.snap)
		if got.Wait != tc.want {
			t.Fatalf("%s: expected %s, got %s (score %v)", tc.name, tc.want, got.Wait, got.Score)
		}
		if got.Reason == "" {
			t.Fatalf("%s: expected a reason", tc.name)
		}
	}

	scores := map[WaitBucket]float64{WaitImmediate: 95, WaitShort: 75, WaitMedium: 40, WaitLong: 20}
	for _, tc := range cases {
		got := EntryTiming(&tc.snap)
		if got.Score != scores[got.Wait] {
			t.Fatalf("%s: score %v does not match bucket %s", tc.name, got.Score, got.Wait)
		}
	}
}
