package feed

import (
	"sync"

	"flowfield-go/internal/market"
)

// Window keeps the most recent observations per symbol so callers can compute
// point-in-time fields over live data.
type Window struct {
	mu       sync.RWMutex
	capacity int
	series   map[string][]market.Observation
}

// NewWindow creates a rolling window holding up to capacity observations per
// symbol.
func NewWindow(capacity int) *Window {
	if capacity < 2 {
		capacity = 2
	}
	return &Window{
		capacity: capacity,
		series:   make(map[string][]market.Observation),
	}
}

// Push appends an observation, evicting the oldest once the symbol is full.
func (w *Window) Push(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	series := append(w.series[event.Symbol], event.Observation)
	if len(series) > w.capacity {
		series = series[len(series)-w.capacity:]
	}
	w.series[event.Symbol] = series
}

// Snapshot returns a copy of the symbol's current series.
func (w *Window) Snapshot(symbol string) []market.Observation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	series := w.series[symbol]
	out := make([]market.Observation, len(series))
	copy(out, series)
	return out
}

// Symbols lists symbols with at least one observation.
func (w *Window) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.series))
	for sym := range w.series {
		out = append(out, sym)
	}
	return out
}
