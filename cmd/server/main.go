package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flowfield-go/internal/api"
	"flowfield-go/internal/config"
	"flowfield-go/internal/feed"
	"flowfield-go/internal/metrics"
	"flowfield-go/internal/util"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "optional YAML config path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := util.NewLogger("info")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	window := feed.NewWindow(cfg.Feed.WindowCapacity)
	source := feed.New(cfg.Feed.Provider, cfg.Feed.Symbols, log,
		feed.WithEmitInterval(time.Duration(cfg.Feed.EmitIntervalMs)*time.Millisecond))
	events := make(chan feed.Event, 1024)

	go func() {
		if err := source.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-events:
				window.Push(event)
			}
		}
	}()

	handler := api.NewHandler(log, window, cfg.Field)
	srv := &http.Server{Addr: cfg.App.ListenAddr, Handler: api.NewRouter(handler)}

	go func() {
		log.Info().Str("addr", cfg.App.ListenAddr).Msg("api up")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api server stopped")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
