package signal

import "flowfield-go/internal/field"

// WaitBucket is the qualitative entry-delay recommendation.
type WaitBucket string

const (
	WaitImmediate WaitBucket = "immediate"
	WaitShort     WaitBucket = "short"
	WaitMedium    WaitBucket = "medium"
	WaitLong      WaitBucket = "long"
)

// EntryTimingResult scores how attractive an immediate entry looks.
type EntryTimingResult struct {
	Score  float64    `json:"score"`
	Wait   WaitBucket `json:"wait"`
	Reason string     `json:"reason"`
}

// EntryTiming buckets the current field state from best to worst entry
// conditions. The checks are ordered; the first match wins.
func EntryTiming(snapshot *field.Snapshot) EntryTimingResult {
	latest, avg := snapshot.LatestForce, snapshot.AverageForce
	switch {
	case latest >= strongForceRatio*avg &&
		snapshot.TurbulenceLevel == field.TurbulenceLow &&
		snapshot.EnergyTrend == field.EnergyAccelerating:
		return EntryTimingResult{Score: 95, Wait: WaitImmediate, Reason: "strong force in a calm, accelerating field"}
	case latest >= avg &&
		(snapshot.TurbulenceLevel == field.TurbulenceLow || snapshot.TurbulenceLevel == field.TurbulenceMedium):
		return EntryTimingResult{Score: 75, Wait: WaitShort, Reason: "above-average force with manageable turbulence"}
	case snapshot.TurbulenceLevel == field.TurbulenceHigh || latest < 0.8*avg:
		return EntryTimingResult{Score: 40, Wait: WaitMedium, Reason: "chaotic or fading force, wait for conditions to settle"}
	default:
		return EntryTimingResult{Score: 20, Wait: WaitLong, Reason: "no edge in the current field"}
	}
}
