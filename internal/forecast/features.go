package forecast

import (
	"math"
	"time"
)

const (
	weeklyPeriod = 7.0
	yearlyPeriod = 365.25
	secondsDay   = 86400.0
)

// design lays out the regression columns:
//
//	[offset, growth, hinge_1..hinge_k, weekly sin/cos pairs, yearly sin/cos pairs]
//
// Time is scaled so the history spans [0, 1].
type design struct {
	origin       time.Time
	span         float64 // history length in days
	changepoints []float64
	weekly       int
	yearly       int
}

func newDesign(dates []time.Time, cfg Config) *design {
	d := &design{
		origin: dates[0],
		span:   dates[len(dates)-1].Sub(dates[0]).Hours() / 24,
	}
	d.changepoints = d.placeChangepoints(dates, cfg)

	if d.span >= 14 && minSpacingDays(dates) < 7 {
		d.weekly = cfg.WeeklyOrder
	}
	if d.span >= 730 {
		d.yearly = cfg.YearlyOrder
	}
	return d
}

// placeChangepoints spreads up to MaxChangepoints candidate dates uniformly
// over the first ChangepointRange of the history.
func (d *design) placeChangepoints(dates []time.Time, cfg Config) []float64 {
	histSize := int(math.Floor(float64(len(dates)) * cfg.ChangepointRange))
	n := cfg.MaxChangepoints
	if histSize-1 < n {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}
	cps := make([]float64, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * step))
		cps = append(cps, d.t(dates[idx]))
	}
	return cps
}

func minSpacingDays(dates []time.Time) float64 {
	minGap := math.Inf(1)
	for i := 1; i < len(dates); i++ {
		if gap := dates[i].Sub(dates[i-1]).Hours() / 24; gap > 0 && gap < minGap {
			minGap = gap
		}
	}
	return minGap
}

// t maps a date onto the scaled time axis.
func (d *design) t(date time.Time) float64 {
	return date.Sub(d.origin).Hours() / 24 / d.span
}

func (d *design) width() int {
	return 2 + len(d.changepoints) + 2*d.weekly + 2*d.yearly
}

func (d *design) weeklyCol() int { return 2 + len(d.changepoints) }

func (d *design) yearlyCol() int { return d.weeklyCol() + 2*d.weekly }

// row writes the feature vector for date into dst, which must have
// width() elements.
func (d *design) row(date time.Time, dst []float64) {
	t := d.t(date)
	dst[0] = 1
	dst[1] = t
	for j, s := range d.changepoints {
		dst[2+j] = math.Max(0, t-s)
	}
	epochDays := float64(date.Unix()) / secondsDay
	fourier(epochDays, weeklyPeriod, d.weekly, dst[d.weeklyCol():])
	fourier(epochDays, yearlyPeriod, d.yearly, dst[d.yearlyCol():])
}

func fourier(days, period float64, order int, dst []float64) {
	for i := 0; i < order; i++ {
		x := 2 * math.Pi * float64(i+1) * days / period
		dst[2*i] = math.Sin(x)
		dst[2*i+1] = math.Cos(x)
	}
}

// priorScales returns the prior standard deviation of every column.
func (d *design) priorScales(cfg Config) []float64 {
	scales := make([]float64, d.width())
	scales[0], scales[1] = 5, 5
	for j := range d.changepoints {
		scales[2+j] = cfg.ChangepointPriorScale
	}
	for j := d.weeklyCol(); j < len(scales); j++ {
		scales[j] = cfg.SeasonalityPriorScale
	}
	return scales
}

// components splits a fitted row into trend, weekly and yearly parts.
func (d *design) components(beta, row []float64) (trend, weekly, yearly float64) {
	w, y := d.weeklyCol(), d.yearlyCol()
	for j := 0; j < w; j++ {
		trend += beta[j] * row[j]
	}
	for j := w; j < y; j++ {
		weekly += beta[j] * row[j]
	}
	for j := y; j < len(row); j++ {
		yearly += beta[j] * row[j]
	}
	return trend, weekly, yearly
}

// changepointDates converts the scaled changepoints back to dates.
func (d *design) changepointDates() []time.Time {
	out := make([]time.Time, len(d.changepoints))
	for i, s := range d.changepoints {
		out[i] = d.origin.Add(time.Duration(s * d.span * 24 * float64(time.Hour))).Truncate(24 * time.Hour)
	}
	return out
}
