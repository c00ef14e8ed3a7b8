package forecast

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"StockSeer/internal/model"
)

// sampler draws uncertainty bounds for a fitted model. Historical trend is
// taken as known; future trend gains random changepoints at the historical
// rate with Laplace magnitudes, and every prediction gets normal noise.
type sampler struct {
	cfg    Config
	design *design
	beta   []float64
	sigma  float64
}

// bounds fills Lower/Upper and TrendLower/TrendUpper on points in scaled
// units. The first nHist points are historical.
func (s *sampler) bounds(ctx context.Context, points []model.ForecastPoint, nHist int) error {
	lo := (1 - s.cfg.IntervalWidth) / 2
	hi := (1 + s.cfg.IntervalWidth) / 2

	// Only noise applies to fitted dates, so its quantiles are exact.
	z := distuv.UnitNormal.Quantile(hi) * s.sigma
	for i := 0; i < nHist; i++ {
		p := &points[i]
		p.TrendLower, p.TrendUpper = p.Trend, p.Trend
		p.Lower, p.Upper = p.Predicted-z, p.Predicted+z
	}

	future := points[nHist:]
	if len(future) == 0 {
		return nil
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	rng := rand.New(src)

	nCP := len(s.design.changepoints)
	meanAbsDelta := 1e-8
	for j := 0; j < nCP; j++ {
		meanAbsDelta += math.Abs(s.beta[2+j]) / float64(nCP)
	}
	tf := make([]float64, len(future))
	for k, p := range future {
		tf[k] = s.design.t(p.Date)
	}
	tMax := tf[len(tf)-1]
	expected := float64(nCP) * (tMax - 1)

	magnitude := distuv.Laplace{Mu: 0, Scale: meanAbsDelta, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: s.sigma, Src: src}
	count := distuv.Poisson{Lambda: expected, Src: src}

	samples := s.cfg.UncertaintySamples
	trendS := make([][]float64, len(future))
	predS := make([][]float64, len(future))
	for k := range future {
		trendS[k] = make([]float64, samples)
		predS[k] = make([]float64, samples)
	}

	var locs, deltas []float64
	for i := 0; i < samples; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		locs, deltas = locs[:0], deltas[:0]
		if expected > 0 {
			for c := int(count.Rand()); c > 0; c-- {
				locs = append(locs, 1+rng.Float64()*(tMax-1))
				deltas = append(deltas, magnitude.Rand())
			}
		}
		for k, p := range future {
			tr := p.Trend
			for c, loc := range locs {
				if tf[k] > loc {
					tr += deltas[c] * (tf[k] - loc)
				}
			}
			trendS[k][i] = tr
			predS[k][i] = tr + p.Seasonal + noise.Rand()
		}
	}

	for k := range future {
		p := &future[k]
		sort.Float64s(trendS[k])
		sort.Float64s(predS[k])
		p.TrendLower = stat.Quantile(lo, stat.Empirical, trendS[k], nil)
		p.TrendUpper = stat.Quantile(hi, stat.Empirical, trendS[k], nil)
		p.Lower = stat.Quantile(lo, stat.Empirical, predS[k], nil)
		p.Upper = stat.Quantile(hi, stat.Empirical, predS[k], nil)
	}
	return nil
}
