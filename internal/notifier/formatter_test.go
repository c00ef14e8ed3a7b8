package notifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"StockSeer/internal/model"
	"StockSeer/internal/pipeline"
	"StockSeer/internal/recorder"
)

func sampleResult() *pipeline.Result {
	d := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	return &pipeline.Result{
		Params: pipeline.Params{Ticker: "PEP", Months: 1},
		Series: &model.PriceSeries{Ticker: "PEP", Source: "yahoo", Observations: make([]model.PriceObservation, 3)},
		Forecast: &model.Forecast{
			Ticker: "PEP",
			Points: []model.ForecastPoint{{Date: d, Predicted: 150, Lower: 140, Upper: 160}},
			Model:  model.ModelInfo{IntervalWidth: 0.8},
		},
		Summary: model.Summary{LastClose: 145, HorizonDate: "2025-07-01", HorizonValue: 150, HorizonLower: 140, HorizonUpper: 160, ExpectedMove: 3.45},
	}
}

func TestFormatForecast(t *testing.T) {
	msg := FormatForecast(sampleResult())
	assert.Contains(t, msg, "<b>PEP</b> | 1-month forecast")
	assert.Contains(t, msg, "2025-07-01</b>: 150.00 (+3.5%)")
	assert.Contains(t, msg, "80% interval: 140.00 – 160.00")
	assert.Contains(t, msg, "3 observations from yahoo")
	assert.Equal(t, 1, strings.Count(msg, "<pre>"))
}

func TestFormatDigestAndError(t *testing.T) {
	err := &model.DataUnavailableError{Ticker: "<X>", Source: "yahoo", Err: errors.New("boom")}
	msg := FormatDigest([]DigestLine{
		{Ticker: "PEP", Result: sampleResult()},
		{Ticker: "<X>", Err: err},
	}, time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC))
	assert.Contains(t, msg, "2025-06-02")
	assert.Contains(t, msg, "<b>PEP</b> 145.00 → 150.00 by 2025-07-01")
	assert.Contains(t, msg, "&lt;X&gt;: DataUnavailable")

	assert.Contains(t, FormatError("<X>", err), "&lt;X&gt;</b> DataUnavailable")
}

func TestFormatRuns(t *testing.T) {
	assert.Equal(t, "No runs recorded yet.", FormatRuns(nil))
	msg := FormatRuns([]recorder.RunRecord{{Time: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC), Ticker: "MSFT", Months: 3, Status: "OK", Duration: 1200 * time.Millisecond}})
	assert.Contains(t, msg, "06-02 09:30 MSFT 3m OK (1.2s)")
}
