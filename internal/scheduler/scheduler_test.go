package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSeer/internal/collector"
	"StockSeer/internal/forecast"
	"StockSeer/internal/model"
	"StockSeer/internal/notifier"
	"StockSeer/internal/pipeline"
	"StockSeer/internal/recorder"
)

func ramp() []model.PriceObservation {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]model.PriceObservation, 90)
	for i := range obs {
		c := decimal.NewFromFloat(50 + float64(i)*0.2)
		obs[i] = model.PriceObservation{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, AdjClose: c}
	}
	return obs
}

func newTestScheduler(t *testing.T) (*Scheduler, *collector.MockFetcher) {
	t.Helper()
	f := &collector.MockFetcher{Data: ramp()}
	rec, err := recorder.NewSQLiteRecorder(t.TempDir() + "/runs.db")
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	col := collector.NewCollector(f, collector.NewMemoryCache(16, time.Hour), nil)
	p := pipeline.New(col, forecast.NewAdditive(forecast.Config{UncertaintySamples: 50, Seed: 1}),
		time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), pipeline.WithRecorder(rec))
	s := NewScheduler(context.Background(), p, notifier.NewTelegramNotifier("", "", ""), []string{"PEP", "MSFT"}, nil)
	return s, f
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.RegisterAll("0 30 6 * * 1-5", "0 0 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 2)

	s2, _ := newTestScheduler(t)
	assert.Error(t, s2.RegisterAll("not a cron", ""))

	s3, _ := newTestScheduler(t)
	require.NoError(t, s3.RegisterAll("", ""))
	assert.Empty(t, s3.Cron.Entries())
}

func TestHandleCommand_Forecast(t *testing.T) {
	s, f := newTestScheduler(t)
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/forecast pep 2")
	assert.Contains(t, reply, "<b>PEP</b> | 2-month forecast")

	reply = s.HandleCommand(ctx, "/forecast@StockSeerBot PEP")
	assert.Contains(t, reply, "1-month forecast")
	assert.EqualValues(t, 1, f.Calls())

	assert.Contains(t, s.HandleCommand(ctx, "/forecast PEP 99"), "InvalidParameter")
	assert.Contains(t, s.HandleCommand(ctx, "/forecast PEP two"), "Months must be a number")
	assert.Contains(t, s.HandleCommand(ctx, "/forecast"), "Usage")
}

func TestHandleCommand_Other(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	assert.Equal(t, "Default tickers: PEP, MSFT", s.HandleCommand(ctx, "/tickers"))
	assert.Equal(t, "No runs recorded yet.", s.HandleCommand(ctx, "/runs"))
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "Available commands")

	s.HandleCommand(ctx, "/forecast MSFT")
	assert.Contains(t, s.HandleCommand(ctx, "/runs"), "MSFT 1m OK")
}

func TestWarmAndDigest(t *testing.T) {
	s, f := newTestScheduler(t)

	s.RunWarmNow()
	assert.EqualValues(t, 2, f.Calls())

	lines := s.Digest(context.Background())
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.NoError(t, l.Err)
		assert.NotNil(t, l.Result)
	}
	assert.EqualValues(t, 2, f.Calls())

	// Disabled notifier: the digest task is a no-op.
	s.digestTask()
}
