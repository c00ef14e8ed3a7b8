package model

import "time"

// ForecastPoint is one row of a forecast table. Predicted = Trend + Seasonal
// and Seasonal = Weekly + Yearly.
type ForecastPoint struct {
	Date       time.Time `json:"date"`
	Predicted  float64   `json:"predicted"`
	Lower      float64   `json:"lower"`
	Upper      float64   `json:"upper"`
	Trend      float64   `json:"trend"`
	TrendLower float64   `json:"trend_lower"`
	TrendUpper float64   `json:"trend_upper"`
	Seasonal   float64   `json:"seasonal"`
	Weekly     float64   `json:"weekly"`
	Yearly     float64   `json:"yearly"`
	Historical bool      `json:"historical"`
}

// ModelInfo describes the fitted model behind a forecast.
type ModelInfo struct {
	Changepoints  []time.Time `json:"changepoints"`
	Weekly        bool        `json:"weekly"`
	Yearly        bool        `json:"yearly"`
	ResidualSigma float64     `json:"residual_sigma"`
	IntervalWidth float64     `json:"interval_width"`
	Samples       int         `json:"samples"`
	Observations  int         `json:"observations"`
	GrowthPerYear float64     `json:"growth_per_year"`
}

// Forecast covers every input date followed by HorizonDays future days.
type Forecast struct {
	Ticker      string          `json:"ticker"`
	HorizonDays int             `json:"horizon_days"`
	Points      []ForecastPoint `json:"points"`
	FittedAt    time.Time       `json:"fitted_at"`
	Model       ModelInfo       `json:"model"`
}

// Tail returns the last n points.
func (f *Forecast) Tail(n int) []ForecastPoint {
	if f == nil || n <= 0 {
		return nil
	}
	if n > len(f.Points) {
		n = len(f.Points)
	}
	return f.Points[len(f.Points)-n:]
}

// Future returns the points beyond the last observed date.
func (f *Forecast) Future() []ForecastPoint {
	if f == nil {
		return nil
	}
	for i, p := range f.Points {
		if !p.Historical {
			return f.Points[i:]
		}
	}
	return nil
}

// Last returns the final point, which sits at the end of the horizon.
func (f *Forecast) Last() (ForecastPoint, bool) {
	if f == nil || len(f.Points) == 0 {
		return ForecastPoint{}, false
	}
	return f.Points[len(f.Points)-1], true
}
