// Package pipeline ties validation, retrieval and forecasting together into
// a single request-per-action run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"StockSeer/internal/calculator"
	"StockSeer/internal/collector"
	"StockSeer/internal/forecast"
	"StockSeer/internal/metrics"
	"StockSeer/internal/model"
	"StockSeer/internal/recorder"
)

// DefaultTail is the number of rows shown in the raw-data and forecast
// tables.
const DefaultTail = 5

// Result is the outcome of one successful run.
type Result struct {
	RunID    uuid.UUID          `json:"run_id"`
	Params   Params             `json:"params"`
	Series   *model.PriceSeries `json:"-"`
	Forecast *model.Forecast    `json:"-"`
	Summary  model.Summary      `json:"summary"`
	Duration time.Duration      `json:"duration"`
}

// HistoryTail returns the last n observations.
func (r *Result) HistoryTail(n int) []model.PriceObservation {
	return r.Series.Tail(n)
}

// ForecastTail returns the last n forecast points.
func (r *Result) ForecastTail(n int) []model.ForecastPoint {
	return r.Forecast.Tail(n)
}

// Pipeline runs forecasts.
type Pipeline struct {
	collector    *collector.Collector
	engine       forecast.Engine
	recorder     recorder.Recorder
	metrics      *metrics.Metrics
	historyStart time.Time
	now          func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder records every run.
func WithRecorder(r recorder.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithMetrics counts runs.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock replaces time.Now, which fixes the end of the history interval.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline fetching history from historyStart up to today.
func New(col *collector.Collector, engine forecast.Engine, historyStart time.Time, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector:    col,
		engine:       engine,
		recorder:     recorder.NewNoopRecorder(),
		historyStart: model.DateOf(historyStart),
		now:          time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Interval returns the history interval used for every run.
func (p *Pipeline) Interval() (start, end time.Time) {
	return p.historyStart, model.DateOf(p.now())
}

// Source names the market-data provider.
func (p *Pipeline) Source() string { return p.collector.Source() }

// History fetches the price series for ticker over the configured interval.
func (p *Pipeline) History(ctx context.Context, ticker string) (*model.PriceSeries, error) {
	if err := ValidateTicker(ticker); err != nil {
		return nil, err
	}
	start, end := p.Interval()
	return p.collector.Fetch(ctx, Params{Ticker: ticker}.Normalize().Ticker, start, end)
}

// Run validates params, fetches history and fits the forecast. Every run is
// recorded, successful or not.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	began := time.Now()
	params = params.Normalize()
	runID := uuid.New()

	res, err := p.run(ctx, runID, params)
	elapsed := time.Since(began)
	p.record(runID, params, res, err, elapsed)

	if err != nil && model.Kind(err) == model.KindCancelled {
		log.Printf("[INFO] run %s for %s cancelled after %v", runID, params.Ticker, elapsed.Round(time.Millisecond))
		return nil, err
	}
	if err != nil {
		log.Printf("[WARN] run %s for %s (%d months) failed after %v: %v",
			runID, params.Ticker, params.Months, elapsed.Round(time.Millisecond), err)
		return nil, err
	}
	res.Duration = elapsed
	log.Printf("[INFO] run %s for %s (%d months) completed in %v",
		runID, params.Ticker, params.Months, elapsed.Round(time.Millisecond))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID uuid.UUID, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	start, end := p.Interval()
	series, err := p.collector.Fetch(ctx, params.Ticker, start, end)
	if err != nil {
		return &Result{RunID: runID, Params: params}, err
	}

	res := &Result{RunID: runID, Params: params, Series: series}
	fitStarted := time.Now()
	fc, err := p.engine.Fit(ctx, params.Ticker, forecast.PointsFromCloses(series.Observations), params.HorizonDays())
	p.metrics.ObserveFit(time.Since(fitStarted))
	if err != nil {
		return res, fmt.Errorf("forecast %s: %w", params.Ticker, err)
	}
	res.Forecast = fc
	res.Summary = calculator.Summarize(series, fc)
	return res, nil
}

func (p *Pipeline) record(runID uuid.UUID, params Params, res *Result, err error, elapsed time.Duration) {
	status := recorder.StatusOK
	if err != nil {
		status = model.Kind(err)
	}
	p.metrics.ObserveRun(status, elapsed)

	run := &recorder.RunRecord{
		ID:          runID.String(),
		Time:        p.now().UTC(),
		Ticker:      params.Ticker,
		Months:      params.Months,
		HorizonDays: params.HorizonDays(),
		Source:      p.collector.Source(),
		Status:      status,
		Duration:    elapsed,
	}
	if err != nil {
		run.Error = err.Error()
	}
	if res != nil {
		run.Observations = res.Series.Len()
		if res.Forecast != nil {
			run.Points = len(res.Forecast.Points)
		}
	}
	if rerr := p.recorder.RecordRun(run); rerr != nil {
		log.Printf("[ERROR] record run %s: %v", runID, rerr)
	}
}

// RecentRuns lists recorded runs, newest first.
func (p *Pipeline) RecentRuns(limit int) ([]recorder.RunRecord, error) {
	return p.recorder.RecentRuns(limit)
}

// warmConcurrency bounds parallel provider calls during Warm.
const warmConcurrency = 4

// Warm prefetches history for tickers into the collector cache. Failures
// are logged per ticker; only cancellation aborts the whole warm-up.
func (p *Pipeline) Warm(ctx context.Context, tickers []string) (int, error) {
	start, end := p.Interval()
	var warmed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for _, t := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ticker := Params{Ticker: t}.Normalize().Ticker
			if _, err := p.collector.Fetch(gctx, ticker, start, end); err != nil {
				log.Printf("[WARN] warm %s: %v", ticker, err)
				return nil
			}
			warmed.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(warmed.Load()), err
}
