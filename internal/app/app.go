// Package app assembles the collector, engine, recorder and pipeline from
// configuration. Both binaries build on it.
package app

import (
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"StockSeer/internal/collector"
	"StockSeer/internal/config"
	"StockSeer/internal/forecast"
	"StockSeer/internal/metrics"
	"StockSeer/internal/pipeline"
	"StockSeer/internal/recorder"
)

// App is the wired core shared by the server and the CLI.
type App struct {
	Config    *config.Config
	Metrics   *metrics.Metrics
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Pipeline  *pipeline.Pipeline
}

// NewFetcher picks the market-data provider named by the config.
func NewFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "alpaca":
		return collector.NewAlpacaFetcher(ds.Alpaca.APIKey, ds.Alpaca.APISecret, ds.Alpaca.BaseURL, ds.Alpaca.Feed, cfg.Proxy), nil
	case "yahoo":
		return collector.NewYahooFetcher(cfg.Proxy), nil
	case "mock":
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", ds.Provider)
	}
}

// Build wires everything the config describes. withRecorder=false skips the
// SQLite run log.
func Build(cfg *config.Config, withRecorder bool) (*App, error) {
	start, err := cfg.HistoryStartDate()
	if err != nil {
		return nil, fmt.Errorf("history start: %w", err)
	}

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	m := metrics.NewMetrics("stockseer", prometheus.NewRegistry())
	col := collector.NewCollector(fetcher, collector.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL), m)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if withRecorder && cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}

	engine := forecast.NewAdditive(forecast.Config{
		ChangepointPriorScale: cfg.Forecast.ChangepointPriorScale,
		SeasonalityPriorScale: cfg.Forecast.SeasonalityPriorScale,
		IntervalWidth:         cfg.Forecast.IntervalWidth,
		UncertaintySamples:    cfg.Forecast.UncertaintySamples,
	})

	p := pipeline.New(col, engine, start,
		pipeline.WithRecorder(rec),
		pipeline.WithMetrics(m),
	)
	return &App{
		Config:    cfg,
		Metrics:   m,
		Collector: col,
		Recorder:  rec,
		Pipeline:  p,
	}, nil
}

// Close releases the recorder.
func (a *App) Close() error {
	return a.Recorder.Close()
}

// LoadConfig resolves the config path, loads and validates it.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 10 * time.Second
