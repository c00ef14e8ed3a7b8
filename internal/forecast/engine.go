// Package forecast fits an additive time-series model (piecewise-linear
// trend plus Fourier seasonality) to a daily price series and extends it
// over a horizon with uncertainty bounds.
package forecast

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"StockSeer/internal/model"
)

// Point is one (date, value) pair of the series to fit.
type Point struct {
	Date  time.Time
	Value float64
}

// PointsFromCloses reshapes observations into (date, close) points.
func PointsFromCloses(obs []model.PriceObservation) []Point {
	pts := make([]Point, len(obs))
	for i, o := range obs {
		pts[i] = Point{Date: o.Date, Value: o.Close.InexactFloat64()}
	}
	return pts
}

// Engine produces a forecast from a series.
type Engine interface {
	Fit(ctx context.Context, ticker string, series []Point, horizonDays int) (*model.Forecast, error)
}

// Config tunes the additive model.
type Config struct {
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	MaxChangepoints       int
	ChangepointRange      float64
	WeeklyOrder           int
	YearlyOrder           int
	IntervalWidth         float64
	UncertaintySamples    int
	// Seed fixes the sampler. Zero seeds from the clock.
	Seed uint64
}

// DefaultConfig returns the standard model settings.
func DefaultConfig() Config {
	return Config{
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		MaxChangepoints:       25,
		ChangepointRange:      0.8,
		WeeklyOrder:           3,
		YearlyOrder:           10,
		IntervalWidth:         0.8,
		UncertaintySamples:    1000,
	}
}

// noiseScale is the assumed observation noise of the scaled series used to
// turn prior scales into ridge penalties.
const noiseScale = 0.05

// Additive is the default Engine.
type Additive struct {
	cfg Config
	now func() time.Time
}

// NewAdditive creates an engine. Zero fields of cfg take their defaults.
func NewAdditive(cfg Config) *Additive {
	def := DefaultConfig()
	if cfg.ChangepointPriorScale <= 0 {
		cfg.ChangepointPriorScale = def.ChangepointPriorScale
	}
	if cfg.SeasonalityPriorScale <= 0 {
		cfg.SeasonalityPriorScale = def.SeasonalityPriorScale
	}
	if cfg.MaxChangepoints < 0 {
		cfg.MaxChangepoints = 0
	} else if cfg.MaxChangepoints == 0 {
		cfg.MaxChangepoints = def.MaxChangepoints
	}
	if cfg.ChangepointRange <= 0 || cfg.ChangepointRange > 1 {
		cfg.ChangepointRange = def.ChangepointRange
	}
	if cfg.WeeklyOrder <= 0 {
		cfg.WeeklyOrder = def.WeeklyOrder
	}
	if cfg.YearlyOrder <= 0 {
		cfg.YearlyOrder = def.YearlyOrder
	}
	if cfg.IntervalWidth <= 0 || cfg.IntervalWidth >= 1 {
		cfg.IntervalWidth = def.IntervalWidth
	}
	if cfg.UncertaintySamples <= 0 {
		cfg.UncertaintySamples = def.UncertaintySamples
	}
	return &Additive{cfg: cfg, now: time.Now}
}

// Config returns the effective configuration.
func (a *Additive) Config() Config { return a.cfg }

// Fit estimates the model on series and returns one point per input date
// followed by one point per calendar day up to horizonDays past the last
// input date.
func (a *Additive) Fit(ctx context.Context, ticker string, series []Point, horizonDays int) (*model.Forecast, error) {
	if horizonDays <= 0 {
		return nil, &model.ParamError{Field: "horizon", Value: strconv.Itoa(horizonDays), Reason: "must be positive"}
	}
	pts := cleanPoints(series)
	if len(pts) < 2 {
		return nil, &model.InsufficientDataError{Ticker: ticker, Observations: len(pts), Reason: "need at least 2 observations"}
	}
	if !hasVariation(pts) {
		return nil, &model.InsufficientDataError{Ticker: ticker, Observations: len(pts), Reason: "series has no variation"}
	}

	started := time.Now()
	dates := make([]time.Time, len(pts))
	y := make([]float64, len(pts))
	for i, p := range pts {
		dates[i] = p.Date
		y[i] = p.Value
	}
	yScale := floats.Norm(y, math.Inf(1))
	floats.Scale(1/yScale, y)

	d := newDesign(dates, a.cfg)
	beta, err := a.solve(d, dates, y)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", ticker, err)
	}

	n, p := len(dates), d.width()
	all := make([]time.Time, 0, n+horizonDays)
	all = append(all, dates...)
	last := dates[n-1]
	for i := 1; i <= horizonDays; i++ {
		all = append(all, last.AddDate(0, 0, i))
	}

	points := make([]model.ForecastPoint, len(all))
	row := make([]float64, p)
	residuals := make([]float64, n)
	for i, date := range all {
		d.row(date, row)
		trend, weekly, yearly := d.components(beta, row)
		points[i] = model.ForecastPoint{
			Date:       date,
			Trend:      trend,
			Weekly:     weekly,
			Yearly:     yearly,
			Seasonal:   weekly + yearly,
			Predicted:  trend + weekly + yearly,
			Historical: i < n,
		}
		if i < n {
			residuals[i] = y[i] - points[i].Predicted
		}
	}
	sigma := floats.Norm(residuals, 2) / math.Sqrt(float64(n))

	s := &sampler{cfg: a.cfg, design: d, beta: beta, sigma: sigma}
	if err := s.bounds(ctx, points, n); err != nil {
		return nil, err
	}

	for i := range points {
		pt := &points[i]
		pt.Predicted *= yScale
		pt.Lower *= yScale
		pt.Upper *= yScale
		pt.Trend *= yScale
		pt.TrendLower *= yScale
		pt.TrendUpper *= yScale
		pt.Weekly *= yScale
		pt.Yearly *= yScale
		pt.Seasonal *= yScale
	}

	growth := beta[1]
	for j := range d.changepoints {
		growth += beta[2+j]
	}

	fc := &model.Forecast{
		Ticker:      ticker,
		HorizonDays: horizonDays,
		Points:      points,
		FittedAt:    a.now().UTC(),
		Model: model.ModelInfo{
			Changepoints:  d.changepointDates(),
			Weekly:        d.weekly > 0,
			Yearly:        d.yearly > 0,
			ResidualSigma: sigma * yScale,
			IntervalWidth: a.cfg.IntervalWidth,
			Samples:       a.cfg.UncertaintySamples,
			Observations:  n,
			GrowthPerYear: growth * yScale / d.span * yearlyPeriod,
		},
	}
	log.Printf("[INFO] Fitted %s: %d observations, %d changepoints, weekly=%v yearly=%v, %d-day horizon in %v",
		ticker, n, len(d.changepoints), fc.Model.Weekly, fc.Model.Yearly, horizonDays, time.Since(started).Round(time.Millisecond))
	return fc, nil
}

// solve finds the MAP coefficients by least squares on the design matrix
// stacked over one penalty row per coefficient.
func (a *Additive) solve(d *design, dates []time.Time, y []float64) ([]float64, error) {
	n, p := len(dates), d.width()
	A := mat.NewDense(n+p, p, nil)
	b := mat.NewVecDense(n+p, nil)

	row := make([]float64, p)
	for i, date := range dates {
		d.row(date, row)
		A.SetRow(i, row)
		b.SetVec(i, y[i])
	}
	for j, scale := range d.priorScales(a.cfg) {
		lambda := (noiseScale/scale)*(noiseScale/scale) + 1e-8
		A.Set(n+j, j, math.Sqrt(lambda))
	}

	var beta mat.VecDense
	if err := beta.SolveVec(A, b); err != nil {
		return nil, fmt.Errorf("least squares: %w", err)
	}
	return mat.Col(nil, 0, &beta), nil
}

// cleanPoints sorts by date and drops non-finite values.
func cleanPoints(series []Point) []Point {
	out := make([]Point, 0, len(series))
	for _, p := range series {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		p.Date = model.DateOf(p.Date)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	// Keep the last value for a repeated date.
	dedup := out[:0]
	for _, p := range out {
		if k := len(dedup); k > 0 && dedup[k-1].Date.Equal(p.Date) {
			dedup[k-1] = p
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

func hasVariation(pts []Point) bool {
	for _, p := range pts[1:] {
		if p.Value != pts[0].Value {
			return true
		}
	}
	return false
}
