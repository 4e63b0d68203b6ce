package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every route onto a chi mux.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/field", h.ComputeField)
		r.Post("/signal", h.ClassifySignal)
		r.Post("/reversal", h.DetectReversal)
		r.Post("/entry-timing", h.EntryTiming)
		r.Post("/backtest", h.RunBacktest)
		r.Post("/backtest/batch", h.RunBatch)
		r.Get("/live/{symbol}/field", func(w http.ResponseWriter, req *http.Request) {
			h.LiveField(w, req, chi.URLParam(req, "symbol"))
		})
	})
	return r
}
