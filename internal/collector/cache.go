package collector

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"StockSeer/internal/model"
)

// CacheKey identifies one retrieval: a ticker over a closed date interval.
type CacheKey struct {
	Ticker string
	Start  string // YYYY-MM-DD
	End    string // YYYY-MM-DD
}

// NewCacheKey builds the key for ticker over [start, end].
func NewCacheKey(ticker string, start, end time.Time) CacheKey {
	return CacheKey{
		Ticker: strings.ToUpper(ticker),
		Start:  start.Format("2006-01-02"),
		End:    end.Format("2006-01-02"),
	}
}

func (k CacheKey) String() string {
	return k.Ticker + ":" + k.Start + ":" + k.End
}

// Cache stores retrieved series. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key CacheKey) (*model.PriceSeries, bool)
	Put(key CacheKey, series *model.PriceSeries)
	Len() int
	Purge()
}

// MemoryCache is a bounded LRU cache whose entries also expire after a TTL.
type MemoryCache struct {
	lru *expirable.LRU[CacheKey, *model.PriceSeries]
}

// NewMemoryCache creates a cache holding at most size entries for ttl each.
// A zero ttl disables expiry.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 128
	}
	return &MemoryCache{lru: expirable.NewLRU[CacheKey, *model.PriceSeries](size, nil, ttl)}
}

func (c *MemoryCache) Get(key CacheKey) (*model.PriceSeries, bool) { return c.lru.Get(key) }

func (c *MemoryCache) Put(key CacheKey, series *model.PriceSeries) { c.lru.Add(key, series) }

func (c *MemoryCache) Len() int { return c.lru.Len() }

func (c *MemoryCache) Purge() { c.lru.Purge() }

// NoCache never stores anything.
type NoCache struct{}

func (NoCache) Get(CacheKey) (*model.PriceSeries, bool) { return nil, false }
func (NoCache) Put(CacheKey, *model.PriceSeries)        {}
func (NoCache) Len() int                                { return 0 }
func (NoCache) Purge()                                  {}
