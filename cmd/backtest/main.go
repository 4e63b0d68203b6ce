package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"flowfield-go/internal/backtest"
	"flowfield-go/internal/config"
	"flowfield-go/internal/market"
	"flowfield-go/internal/util"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "optional YAML config path")
		csvPath    = flag.String("csv", "", "observation CSV for a single-symbol run")
		batchSpec  = flag.String("batch", "", "comma-separated SYMBOL=path pairs for a multi-symbol run")
		logLevel   = flag.String("log-level", "info", "zerolog level")
	)
	flag.Parse()

	log := util.NewLogger(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	switch {
	case *batchSpec != "":
		runBatch(*batchSpec, cfg)
	case *csvPath != "":
		runSingle(*csvPath, cfg)
	default:
		log.Fatal().Msg("either -csv or -batch is required")
	}
}

func runSingle(path string, cfg *config.Config) {
	log := util.NewLogger(cfg.App.LogLevel)

	observations, err := market.LoadCSV(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("load observations")
	}
	log.Info().Int("observations", len(observations)).Str("path", path).Msg("loaded series")

	report, err := backtest.Run(observations, cfg.Backtest)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}
	fmt.Print(report.Summary())
}

func runBatch(spec string, cfg *config.Config) {
	log := util.NewLogger(cfg.App.LogLevel)

	series := make(map[string][]market.Observation)
	for _, pair := range strings.Split(spec, ",") {
		symbol, path, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			log.Fatal().Str("pair", pair).Msg("batch entries must look like SYMBOL=path")
		}
		observations, err := market.LoadCSV(path)
		if err != nil {
			log.Fatal().Err(err).Str("symbol", symbol).Msg("load observations")
		}
		series[symbol] = observations
	}

	result := backtest.RunBatch(series, cfg.Backtest)
	for symbol, err := range result.Errors {
		log.Warn().Err(err).Str("symbol", symbol).Msg("symbol skipped")
	}
	for symbol, report := range result.Reports {
		fmt.Printf("=== %s ===\n%s\n", symbol, report.Summary())
	}
	if len(result.Reports) == 0 {
		os.Exit(1)
	}
}
