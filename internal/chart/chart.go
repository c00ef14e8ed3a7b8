// Package chart builds the dashboard charts with go-echarts.
package chart

import (
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"StockSeer/internal/model"
)

// AssetsHost serves the echarts runtime referenced by rendered pages.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

const (
	width  = "100%"
	height = "420px"

	colorOpen     = "#5470c6"
	colorClose    = "#91cc75"
	colorObserved = "#222222"
	colorForecast = "#1f77b4"
	colorBand     = "#9ecae1"
	colorWeekly   = "#ee6666"
	colorYearly   = "#fac858"
)

// Snippet is a chart ready to embed in a page: a container element, the
// script that initializes it and its raw option JSON.
type Snippet struct {
	ID      string
	Title   string
	Element template.HTML
	Script  template.HTML
	Option  string
}

func snippet(id, title string, line *charts.Line) Snippet {
	s := line.RenderSnippet()
	return Snippet{
		ID:      id,
		Title:   title,
		Element: template.HTML(s.Element),
		Script:  template.HTML(s.Script),
		Option:  s.Option,
	}
}

func newLine(id, title, page string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID:    id,
			Width:      width,
			Height:     height,
			PageTitle:  page,
			AssetsHost: AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	return line
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func values(vs []float64) []opts.LineData {
	data := make([]opts.LineData, len(vs))
	for i, v := range vs {
		data[i] = opts.LineData{Value: round2(v)}
	}
	return data
}

func dateLabels(n int, at func(i int) string) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = at(i)
	}
	return labels
}

func thin(color string) charts.SeriesOpts {
	return charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1.5})
}

func noSymbols() charts.SeriesOpts {
	return charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})
}

// addBand stacks an invisible lower line with a shaded (upper - lower) area.
func addBand(line *charts.Line, name, stack string, lower, upper []float64) {
	spread := make([]float64, len(lower))
	for i := range lower {
		spread[i] = upper[i] - lower[i]
	}
	line.AddSeries(name+" lower", values(lower),
		charts.WithLineChartOpts(opts.LineChart{Stack: stack, ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
	)
	line.AddSeries(name, values(spread),
		charts.WithLineChartOpts(opts.LineChart{Stack: stack, ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Color: colorBand, Opacity: opts.Float(0.4)}),
	)
}

// History plots daily open and close with a range slider.
func History(series *model.PriceSeries) *charts.Line {
	obs := series.Observations
	line := newLine("history", "Time Series data", fmt.Sprintf("%s history", series.Ticker))
	line.SetGlobalOptions(charts.WithDataZoomOpts(
		opts.DataZoom{Type: "slider", Start: 0, End: 100},
		opts.DataZoom{Type: "inside", Start: 0, End: 100},
	))

	opens := make([]float64, len(obs))
	closes := make([]float64, len(obs))
	for i, o := range obs {
		opens[i] = o.Open.InexactFloat64()
		closes[i] = o.Close.InexactFloat64()
	}
	line.SetXAxis(dateLabels(len(obs), func(i int) string { return obs[i].Date.Format("2006-01-02") })).
		AddSeries("stock_open", values(opens), thin(colorOpen), noSymbols()).
		AddSeries("stock_close", values(closes), thin(colorClose), noSymbols())
	return line
}

// Forecast plots observed closes, the prediction and its uncertainty band.
func Forecast(series *model.PriceSeries, fc *model.Forecast) *charts.Line {
	pts := fc.Points
	line := newLine("forecast", fmt.Sprintf("Forecast plot for %d days", fc.HorizonDays),
		fmt.Sprintf("%s forecast", fc.Ticker))
	line.SetGlobalOptions(charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 70, End: 100}))

	observed := make(map[string]float64, series.Len())
	if series != nil {
		for _, o := range series.Observations {
			observed[o.Date.Format("2006-01-02")] = o.Close.InexactFloat64()
		}
	}

	labels := dateLabels(len(pts), func(i int) string { return pts[i].Date.Format("2006-01-02") })
	actual := make([]opts.LineData, len(pts))
	predicted := make([]float64, len(pts))
	lower := make([]float64, len(pts))
	upper := make([]float64, len(pts))
	for i, p := range pts {
		if v, ok := observed[labels[i]]; ok {
			actual[i] = opts.LineData{Value: round2(v)}
		} else {
			actual[i] = opts.LineData{Value: "-"}
		}
		predicted[i], lower[i], upper[i] = p.Predicted, p.Lower, p.Upper
	}

	line.SetXAxis(labels)
	addBand(line, "interval", "yhat", lower, upper)
	line.AddSeries("observed", actual,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorObserved, Width: 1}),
	)
	line.AddSeries("predicted", values(predicted), thin(colorForecast), noSymbols())
	return line
}

// Components plots the trend with its band and the seasonal terms.
func Components(fc *model.Forecast) *charts.Line {
	pts := fc.Points
	line := newLine("components", "Forecast components", fmt.Sprintf("%s components", fc.Ticker))
	line.SetGlobalOptions(charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}))

	trend := make([]float64, len(pts))
	lower := make([]float64, len(pts))
	upper := make([]float64, len(pts))
	weekly := make([]float64, len(pts))
	yearly := make([]float64, len(pts))
	for i, p := range pts {
		trend[i], lower[i], upper[i] = p.Trend, p.TrendLower, p.TrendUpper
		weekly[i], yearly[i] = p.Weekly, p.Yearly
	}

	line.SetXAxis(dateLabels(len(pts), func(i int) string { return pts[i].Date.Format("2006-01-02") }))
	addBand(line, "trend interval", "trend", lower, upper)
	line.AddSeries("trend", values(trend), thin(colorForecast), noSymbols())
	if fc.Model.Weekly {
		line.AddSeries("weekly", values(weekly), thin(colorWeekly), noSymbols())
	}
	if fc.Model.Yearly {
		line.AddSeries("yearly", values(yearly), thin(colorYearly), noSymbols())
	}
	return line
}

// Snippets renders the three dashboard charts. fc may be nil, in which case
// only the history chart is returned.
func Snippets(series *model.PriceSeries, fc *model.Forecast) []Snippet {
	if series == nil {
		return nil
	}
	out := []Snippet{snippet("history", "Time Series data", History(series))}
	if fc == nil {
		return out
	}
	return append(out,
		snippet("forecast", "Forecast", Forecast(series, fc)),
		snippet("components", "Forecast components", Components(fc)),
	)
}

// RenderPage writes a standalone HTML page with all charts to w.
func RenderPage(w io.Writer, series *model.PriceSeries, fc *model.Forecast) error {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("StockSeer: %s", series.Ticker))
	page.SetLayout(components.PageFlexLayout)
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(History(series))
	if fc != nil {
		page.AddCharts(Forecast(series, fc), Components(fc))
	}
	return page.Render(w)
}
