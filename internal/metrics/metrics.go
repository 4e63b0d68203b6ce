// Package metrics exposes prometheus instrumentation for the binaries. The
// core packages stay pure; counters are incremented at the edges (feed, API).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ObservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "observations_total", Help: "Count of market observations ingested"},
		[]string{"symbol"},
	)
	FieldsComputed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "fields_computed_total", Help: "Field snapshots computed"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signal classifications emitted"},
		[]string{"verdict"},
	)
	BacktestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "backtests_total", Help: "Backtest runs completed"},
	)
	BacktestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtest_duration_seconds",
			Help:    "Wall-clock duration of backtest runs",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(ObservationsTotal, FieldsComputed, SignalsTotal, BacktestsTotal, BacktestDuration)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
