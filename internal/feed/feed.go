// Package feed hosts observation sources bridging external market data into
// the core. Sources push ordered observations onto a channel; the core never
// fetches anything itself.
package feed

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"flowfield-go/internal/market"
	"flowfield-go/internal/metrics"
)

const (
	// ProviderStub emits deterministic synthetic observations (useful for
	// tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams kline updates from Binance public websockets.
	ProviderBinance = "binance"
	// ProviderReplay replays a preloaded series at a fixed cadence.
	ProviderReplay = "replay"
)

// Event pairs an observation with the symbol it belongs to.
type Event struct {
	Symbol      string
	Observation market.Observation
}

// Feed is a pluggable observation stream implementation.
type Feed struct {
	provider     string
	symbols      []string
	log          zerolog.Logger
	emitInterval time.Duration
	replay       map[string][]market.Observation
	mu           sync.RWMutex
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const defaultEmitInterval = 500 * time.Millisecond

// WithEmitInterval overrides the cadence of the stub and replay providers.
func WithEmitInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.emitInterval = d
		}
	}
}

// WithReplaySeries injects the per-symbol series the replay provider walks.
func WithReplaySeries(series map[string][]market.Observation) Option {
	return func(f *Feed) {
		f.replay = series
	}
}

// New constructs a feed backed by the requested provider.
func New(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		log:          log,
		emitInterval: defaultEmitInterval,
	}
	f.setSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetSymbols replaces the tracked symbol list (deduplicated, sorted for
// determinism).
func (f *Feed) SetSymbols(symbols []string) {
	f.setSymbols(symbols)
}

func (f *Feed) setSymbols(symbols []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	f.symbols = f.symbols[:0]
	for sym := range unique {
		f.symbols = append(f.symbols, sym)
	}
	sort.Strings(f.symbols)
}

func (f *Feed) snapshotSymbols() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// Run pushes observations onto the provided channel until the context is
// canceled.
func (f *Feed) Run(ctx context.Context, out chan<- Event) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, out)
	case ProviderReplay:
		return f.runReplay(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- Event) error {
	ticker := time.NewTicker(f.emitInterval)
	defer ticker.Stop()

	px := 100.0
	step := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			step++
			px += 0.1
			ts := int64(step) * f.emitInterval.Milliseconds()
			for _, sym := range f.snapshotSymbols() {
				obs := market.Observation{Timestamp: ts, Price: px, Volume: 10}
				select {
				case out <- Event{Symbol: sym, Observation: obs}:
					metrics.ObservationsTotal.WithLabelValues(sym).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (f *Feed) runReplay(ctx context.Context, out chan<- Event) error {
	ticker := time.NewTicker(f.emitInterval)
	defer ticker.Stop()

	offsets := make(map[string]int, len(f.replay))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			exhausted := true
			for _, sym := range f.snapshotSymbols() {
				series := f.replay[sym]
				idx := offsets[sym]
				if idx >= len(series) {
					continue
				}
				exhausted = false
				offsets[sym] = idx + 1
				select {
				case out <- Event{Symbol: sym, Observation: series[idx]}:
					metrics.ObservationsTotal.WithLabelValues(sym).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if exhausted {
				return nil
			}
		}
	}
}
