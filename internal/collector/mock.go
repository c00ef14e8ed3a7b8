package collector

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"StockSeer/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Data  []model.PriceObservation
	Err   error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchDaily has been invoked.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchDaily(_ context.Context, _ string, start, end time.Time) ([]model.PriceObservation, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Data != nil {
		return m.Data, nil
	}
	return GenerateMockBars(m.Price, start, end), nil
}

// GenerateMockBars produces weekday bars drifting gently upward from
// basePrice over [start, end].
func GenerateMockBars(basePrice float64, start, end time.Time) []model.PriceObservation {
	var bars []model.PriceObservation
	i := 0
	for d := model.DateOf(start); !d.After(model.DateOf(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i)*0.001)
		bars = append(bars, model.PriceObservation{
			Date:     d,
			Open:     decimal.NewFromFloat(p * 0.999),
			High:     decimal.NewFromFloat(p * 1.005),
			Low:      decimal.NewFromFloat(p * 0.995),
			Close:    decimal.NewFromFloat(p),
			AdjClose: decimal.NewFromFloat(p),
			Volume:   1000000,
		})
		i++
	}
	return bars
}
