package web

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"StockSeer/internal/model"
)

// forecastRow is one Parquet row of an exported forecast.
type forecastRow struct {
	Date       string  `parquet:"ds"`
	Predicted  float64 `parquet:"yhat"`
	Lower      float64 `parquet:"yhat_lower"`
	Upper      float64 `parquet:"yhat_upper"`
	Trend      float64 `parquet:"trend"`
	TrendLower float64 `parquet:"trend_lower"`
	TrendUpper float64 `parquet:"trend_upper"`
	Weekly     float64 `parquet:"weekly"`
	Yearly     float64 `parquet:"yearly"`
	Historical bool    `parquet:"historical"`
}

// WriteForecastParquet writes every forecast point to w as Parquet.
func WriteForecastParquet(w io.Writer, fc *model.Forecast) error {
	rows := make([]forecastRow, len(fc.Points))
	for i, p := range fc.Points {
		rows[i] = forecastRow{
			Date:       p.Date.Format("2006-01-02"),
			Predicted:  p.Predicted,
			Lower:      p.Lower,
			Upper:      p.Upper,
			Trend:      p.Trend,
			TrendLower: p.TrendLower,
			TrendUpper: p.TrendUpper,
			Weekly:     p.Weekly,
			Yearly:     p.Yearly,
			Historical: p.Historical,
		}
	}
	return parquet.Write(w, rows)
}
