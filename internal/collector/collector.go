package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"StockSeer/internal/metrics"
	"StockSeer/internal/model"
)

// Collector retrieves daily price history through a Fetcher, normalizing
// and caching the result.
type Collector struct {
	fetcher Fetcher
	cache   Cache
	metrics *metrics.Metrics
	group   singleflight.Group
	timeout time.Duration
	now     func() time.Time
}

// DefaultFetchTimeout bounds one provider call.
const DefaultFetchTimeout = time.Minute

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, cache Cache, m *metrics.Metrics) *Collector {
	if cache == nil {
		cache = NoCache{}
	}
	return &Collector{fetcher: fetcher, cache: cache, metrics: m, timeout: DefaultFetchTimeout, now: time.Now}
}

// Source names the underlying provider.
func (c *Collector) Source() string { return c.fetcher.Name() }

// Cache returns the injected cache.
func (c *Collector) Cache() Cache { return c.cache }

// Fetch returns the daily series for ticker over [start, end]. Provider
// failures surface as *model.DataUnavailableError; the caller's own
// cancellation is returned as ctx.Err(). An empty result is a valid, empty
// series.
func (c *Collector) Fetch(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, &model.ParamError{
			Field:  "interval",
			Value:  fmt.Sprintf("%s..%s", start.Format("2006-01-02"), end.Format("2006-01-02")),
			Reason: "start is after end",
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := NewCacheKey(ticker, start, end)
	if s, ok := c.cache.Get(key); ok {
		c.metrics.ObserveCache(true)
		return s, nil
	}
	c.metrics.ObserveCache(false)

	// The shared fetch outlives any single caller; each caller still
	// returns as soon as its own context is done.
	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		// Another caller may have filled the cache while we waited.
		if s, ok := c.cache.Get(key); ok {
			return s, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fctx, key.Ticker, start, end)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			log.Printf("[INFO] Shared in-flight fetch for %s", key)
		}
		return r.Val.(*model.PriceSeries), nil
	}
}

func (c *Collector) fetch(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error) {
	source := c.fetcher.Name()
	began := time.Now()
	raw, err := c.fetcher.FetchDaily(ctx, ticker, start, end)
	c.metrics.ObserveFetch(source, err, len(raw), time.Since(began))
	if err != nil {
		log.Printf("[WARN] %s fetch failed for %s: %v", source, ticker, err)
		return nil, &model.DataUnavailableError{Ticker: ticker, Source: source, Err: err}
	}

	obs := Normalize(raw, start, end)
	if len(obs) == 0 {
		log.Printf("[WARN] %s returned no observations for %s in %s..%s",
			source, ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	series := &model.PriceSeries{
		Ticker:       ticker,
		Source:       source,
		Start:        start,
		End:          end,
		Observations: obs,
		FetchedAt:    c.now().UTC(),
	}
	c.cache.Put(NewCacheKey(ticker, start, end), series)
	log.Printf("[INFO] Fetched %d observations for %s from %s", len(obs), ticker, source)
	return series, nil
}

// Normalize sorts observations by date, keeps the last row for duplicate
// dates, drops non-positive closes and clips to [start, end]. The input is
// not modified.
func Normalize(raw []model.PriceObservation, start, end time.Time) []model.PriceObservation {
	start, end = model.DateOf(start), model.DateOf(end)

	byDate := make(map[time.Time]model.PriceObservation, len(raw))
	for _, o := range raw {
		o.Date = model.DateOf(o.Date)
		if o.Close.Sign() <= 0 {
			continue
		}
		if o.Date.Before(start) || o.Date.After(end) {
			continue
		}
		byDate[o.Date] = o
	}

	out := make([]model.PriceObservation, 0, len(byDate))
	for _, o := range byDate {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
