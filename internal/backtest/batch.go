package backtest

import (
	"sync"

	"flowfield-go/internal/market"
)

// BatchResult holds per-symbol outcomes. A symbol appears in exactly one of
// the two maps: a failure (for example InsufficientData on a short series)
// never aborts the rest of the batch.
type BatchResult struct {
	Reports map[string]*Report
	Errors  map[string]error
}

// RunBatch simulates every symbol concurrently. Each series is independent
// and read-only, so the fan-out shares no mutable state beyond the guarded
// result maps.
func RunBatch(series map[string][]market.Observation, cfg Config) BatchResult {
	result := BatchResult{
		Reports: make(map[string]*Report, len(series)),
		Errors:  make(map[string]error),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for symbol, observations := range series {
		wg.Add(1)
		go func(symbol string, observations []market.Observation) {
			defer wg.Done()
			report, err := Run(observations, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[symbol] = err
				return
			}
			result.Reports[symbol] = report
		}(symbol, observations)
	}
	wg.Wait()
	return result
}
