package collector

import (
	"context"
	"time"

	"StockSeer/internal/model"
)

// Fetcher retrieves daily price history from a market-data provider.
// start and end are calendar dates and the interval is closed.
type Fetcher interface {
	FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]model.PriceObservation, error)
	Name() string
}
