package chart

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSeer/internal/model"
)

func sample() (*model.PriceSeries, *model.Forecast) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := &model.PriceSeries{Ticker: "PEP"}
	fc := &model.Forecast{Ticker: "PEP", HorizonDays: 3, Model: model.ModelInfo{Weekly: true}}
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		p := decimal.NewFromInt(int64(100 + i))
		series.Observations = append(series.Observations, model.PriceObservation{Date: d, Open: p, Close: p})
		fc.Points = append(fc.Points, model.ForecastPoint{
			Date: d, Predicted: float64(100 + i), Lower: float64(99 + i), Upper: float64(101 + i),
			Trend: float64(100 + i), TrendLower: float64(100 + i), TrendUpper: float64(100 + i), Historical: true,
		})
	}
	for i := 1; i <= 3; i++ {
		fc.Points = append(fc.Points, model.ForecastPoint{
			Date: start.AddDate(0, 0, 9+i), Predicted: float64(109 + i), Lower: float64(105 + i), Upper: float64(113 + i),
			Trend: float64(109 + i), TrendLower: float64(108 + i), TrendUpper: float64(110 + i),
		})
	}
	return series, fc
}

type option struct {
	XAxis []struct {
		Data []string `json:"data"`
	} `json:"xAxis"`
	Series []struct {
		Name  string            `json:"name"`
		Stack string            `json:"stack"`
		Data  []json.RawMessage `json:"data"`
	} `json:"series"`
	DataZoom []struct {
		Type string `json:"type"`
	} `json:"dataZoom"`
}

func decode(t *testing.T, s Snippet) option {
	t.Helper()
	var o option
	require.NoError(t, json.Unmarshal([]byte(s.Option), &o))
	return o
}

func TestSnippets(t *testing.T) {
	series, fc := sample()
	snips := Snippets(series, fc)
	require.Len(t, snips, 3)

	hist := decode(t, snips[0])
	require.Len(t, hist.Series, 2)
	assert.Equal(t, "stock_open", hist.Series[0].Name)
	assert.Equal(t, "stock_close", hist.Series[1].Name)
	assert.Len(t, hist.XAxis[0].Data, 10)
	assert.Equal(t, "slider", hist.DataZoom[0].Type)
	assert.Contains(t, string(snips[0].Element), "history")

	fcOpt := decode(t, snips[1])
	assert.Len(t, fcOpt.XAxis[0].Data, 13)
	names := map[string]string{}
	for _, s := range fcOpt.Series {
		names[s.Name] = s.Stack
		assert.Len(t, s.Data, 13)
	}
	assert.Equal(t, "yhat", names["interval lower"])
	assert.Equal(t, "yhat", names["interval"])
	assert.Contains(t, names, "observed")
	assert.Contains(t, names, "predicted")

	comp := decode(t, snips[2])
	var compNames []string
	for _, s := range comp.Series {
		compNames = append(compNames, s.Name)
	}
	assert.Equal(t, []string{"trend interval lower", "trend interval", "trend", "weekly"}, compNames)
}

func TestSnippets_HistoryOnly(t *testing.T) {
	series, _ := sample()
	assert.Len(t, Snippets(series, nil), 1)
	assert.Nil(t, Snippets(nil, nil))
}

func TestRenderPage(t *testing.T) {
	series, fc := sample()
	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, series, fc))
	assert.Contains(t, buf.String(), "echarts.min.js")
	assert.Contains(t, buf.String(), "StockSeer: PEP")
}
