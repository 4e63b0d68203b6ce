// Package api is the thin JSON surface over the core. It owns transport
// concerns only: decoding requests, mapping errors to status codes, and
// counting traffic. Every route calls the deterministic core directly.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"flowfield-go/internal/backtest"
	"flowfield-go/internal/feed"
	"flowfield-go/internal/field"
	"flowfield-go/internal/market"
	"flowfield-go/internal/metrics"
	"flowfield-go/internal/signal"
)

// Handler carries the dependencies every route shares. fieldCfg is the
// server's configured field tuning; it applies whenever a request carries no
// config of its own.
type Handler struct {
	log      zerolog.Logger
	window   *feed.Window
	fieldCfg field.Config
}

// NewHandler builds a handler. The window may be nil when the server runs
// without a live feed; the live routes then return 404 for every symbol.
func NewHandler(log zerolog.Logger, window *feed.Window, fieldCfg field.Config) *Handler {
	return &Handler{log: log, window: window, fieldCfg: fieldCfg}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type fieldRequest struct {
	Observations []market.Observation `json:"observations"`
	Config       *field.Config        `json:"config,omitempty"`
}

type backtestRequest struct {
	Observations []market.Observation `json:"observations"`
	Config       *backtest.Config     `json:"config,omitempty"`
}

type batchRequest struct {
	Series map[string][]market.Observation `json:"series"`
	Config *backtest.Config                `json:"config,omitempty"`
}

type signalResponse struct {
	Classification signal.Classification    `json:"classification"`
	Score          signal.ScoreResult       `json:"score"`
	EntryTiming    signal.EntryTimingResult `json:"entryTiming"`
}

// ComputeField handles POST /v1/field.
func (h *Handler) ComputeField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	snapshot, err := field.Compute(req.Observations, h.fieldConfig(req.Config))
	if err != nil {
		h.coreError(w, err)
		return
	}
	metrics.FieldsComputed.Inc()
	h.respond(w, http.StatusOK, snapshot)
}

// ClassifySignal handles POST /v1/signal: field computation plus scoring,
// classification, and entry timing in one round trip.
func (h *Handler) ClassifySignal(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	snapshot, err := field.Compute(req.Observations, h.fieldConfig(req.Config))
	if err != nil {
		h.coreError(w, err)
		return
	}
	metrics.FieldsComputed.Inc()
	classification := signal.Classify(snapshot)
	metrics.SignalsTotal.WithLabelValues(string(classification.Verdict)).Inc()
	h.respond(w, http.StatusOK, signalResponse{
		Classification: classification,
		Score:          signal.Score(50, snapshot),
		EntryTiming:    signal.EntryTiming(snapshot),
	})
}

// EntryTiming handles POST /v1/entry-timing.
func (h *Handler) EntryTiming(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	snapshot, err := field.Compute(req.Observations, h.fieldConfig(req.Config))
	if err != nil {
		h.coreError(w, err)
		return
	}
	metrics.FieldsComputed.Inc()
	h.respond(w, http.StatusOK, signal.EntryTiming(snapshot))
}

// DetectReversal handles POST /v1/reversal.
func (h *Handler) DetectReversal(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	snapshot, err := field.Compute(req.Observations, h.fieldConfig(req.Config))
	if err != nil {
		h.coreError(w, err)
		return
	}
	metrics.FieldsComputed.Inc()
	h.respond(w, http.StatusOK, signal.DetectReversal(snapshot, req.Observations))
}

// RunBacktest handles POST /v1/backtest.
func (h *Handler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if !h.decode(w, r, &req) {
		return
	}
	started := time.Now()
	report, err := backtest.Run(req.Observations, backtestConfig(req.Config))
	if err != nil {
		h.coreError(w, err)
		return
	}
	metrics.BacktestsTotal.Inc()
	metrics.BacktestDuration.Observe(time.Since(started).Seconds())
	h.respond(w, http.StatusOK, report)
}

// RunBatch handles POST /v1/backtest/batch. Per-symbol failures come back in
// the errors map; they never fail the request.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}
	started := time.Now()
	result := backtest.RunBatch(req.Series, backtestConfig(req.Config))
	metrics.BacktestsTotal.Inc()
	metrics.BacktestDuration.Observe(time.Since(started).Seconds())

	errs := make(map[string]string, len(result.Errors))
	for symbol, err := range result.Errors {
		errs[symbol] = err.Error()
	}
	h.respond(w, http.StatusOK, map[string]any{
		"reports": result.Reports,
		"errors":  errs,
	})
}

// LiveField handles GET /v1/live/{symbol}/field against the feed window.
func (h *Handler) LiveField(w http.ResponseWriter, r *http.Request, symbol string) {
	if h.window == nil {
		h.error(w, http.StatusNotFound, "no_live_feed", "server is running without a live feed")
		return
	}
	observations := h.window.Snapshot(symbol)
	if len(observations) == 0 {
		h.error(w, http.StatusNotFound, "symbol_not_tracked", "no observations buffered for "+symbol)
		return
	}
	snapshot, err := field.Compute(observations, h.fieldCfg)
	if err != nil {
		h.coreError(w, err)
		return
	}
	metrics.FieldsComputed.Inc()
	h.respond(w, http.StatusOK, snapshot)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.error(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// coreError maps core failures onto status codes: precondition violations are
// the caller's fault (422), anything else is a server-side computation error.
func (h *Handler) coreError(w http.ResponseWriter, err error) {
	if errors.Is(err, market.ErrInsufficientData) {
		h.error(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
		return
	}
	h.log.Error().Err(err).Msg("core computation failed")
	h.error(w, http.StatusInternalServerError, "computation_failed", err.Error())
}

func (h *Handler) error(w http.ResponseWriter, status int, code, message string) {
	h.respond(w, status, errorResponse{Error: code, Message: message})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handler) fieldConfig(c *field.Config) field.Config {
	if c == nil {
		return h.fieldCfg
	}
	return *c
}

func backtestConfig(c *backtest.Config) backtest.Config {
	if c == nil {
		return backtest.DefaultConfig()
	}
	return *c
}
