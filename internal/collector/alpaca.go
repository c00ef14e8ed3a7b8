package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"StockSeer/internal/model"
)

// AlpacaFetcher implements Fetcher using the Alpaca market-data API.
type AlpacaFetcher struct {
	client *marketdata.Client
	feed   marketdata.Feed
	loc    *time.Location
}

// NewAlpacaFetcher creates a fetcher for the given credentials. An empty
// dataURL uses the SDK default endpoint; an empty feed means IEX.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL, feed, proxyURL string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: newHTTPClient(proxyURL),
		RetryLimit: 1,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if feed == "" {
		feed = marketdata.IEX
	}
	// Daily bars are stamped at midnight New York time.
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &AlpacaFetcher{
		client: marketdata.NewClient(opts),
		feed:   feed,
		loc:    loc,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchDaily returns split- and dividend-adjusted daily bars for [start, end].
// The SDK request takes no context: ctx is checked before the call only, and
// an in-flight request is bounded by the HTTP client timeout instead.
func (f *AlpacaFetcher) FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]model.PriceObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := model.DateOf(start)
	e := model.DateOf(end)
	bars, err := f.client.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.AdjustmentAll,
		Start:      time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, f.loc),
		End:        time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 0, f.loc),
		Feed:       f.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars: %w", err)
	}

	obs := make([]model.PriceObservation, 0, len(bars))
	for _, b := range bars {
		closePrice := decimal.NewFromFloat(b.Close)
		obs = append(obs, model.PriceObservation{
			Date:     model.DateOf(b.Timestamp.In(f.loc)),
			Open:     decimal.NewFromFloat(b.Open),
			High:     decimal.NewFromFloat(b.High),
			Low:      decimal.NewFromFloat(b.Low),
			Close:    closePrice,
			AdjClose: closePrice,
			Volume:   int64(b.Volume),
		})
	}
	return obs, nil
}
