package calculator

import (
	"log"

	"StockSeer/internal/model"
)

const (
	shortWindow = 50
	longWindow  = 200
	rsiPeriod   = 14
)

// Summarize derives the headline figures for a series and its forecast.
// Indicators without enough history fall back to the last close, and RSI
// to the neutral 50.
func Summarize(series *model.PriceSeries, fc *model.Forecast) model.Summary {
	var s model.Summary
	closes := series.Closes()
	n := len(closes)
	if n == 0 {
		return s
	}
	last := closes[n-1]
	s.LastClose = last
	if n > 1 && closes[n-2] != 0 {
		s.ChangePct = (last - closes[n-2]) / closes[n-2] * 100
	}

	if h, l, err := YearRange(series); err != nil {
		log.Printf("[WARN] 52-week range for %s: %v", series.Ticker, err)
		s.High52w, s.Low52w = last, last
	} else {
		s.High52w, s.Low52w = h, l
	}
	s.Position52w = 0.5
	if pos, err := RangePosition(last, s.High52w, s.Low52w); err == nil {
		s.Position52w = pos
	}

	s.SMA50 = orElse(SMA(closes, shortWindow))(last)
	s.SMA200 = orElse(SMA(closes, longWindow))(last)
	s.RSI14 = orElse(RSI(closes, rsiPeriod))(50)

	if p, ok := fc.Last(); ok {
		s.HorizonDate = p.Date.Format("2006-01-02")
		s.HorizonValue = p.Predicted
		s.HorizonLower = p.Lower
		s.HorizonUpper = p.Upper
		if last != 0 {
			s.ExpectedMove = (p.Predicted - last) / last * 100
		}
	}
	return s
}

func orElse(v float64, err error) func(float64) float64 {
	return func(fallback float64) float64 {
		if err != nil {
			return fallback
		}
		return v
	}
}
