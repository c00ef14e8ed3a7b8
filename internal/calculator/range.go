package calculator

import (
	"errors"

	"StockSeer/internal/model"
)

// TradingYear is the number of sessions in the 52-week window.
const TradingYear = 252

// YearRange returns the high and low of the last TradingYear sessions.
// Sessions without a high or low contribute their close.
func YearRange(series *model.PriceSeries) (high, low float64, err error) {
	window := series.Tail(TradingYear)
	if len(window) == 0 {
		return 0, 0, errors.New("empty series")
	}
	for i, o := range window {
		h, l := o.High.InexactFloat64(), o.Low.InexactFloat64()
		if h == 0 || l == 0 {
			h = o.Close.InexactFloat64()
			l = h
		}
		if i == 0 {
			high, low = h, l
			continue
		}
		high, low = max(high, h), min(low, l)
	}
	return high, low, nil
}

// RangePosition places price within [low, high] as a fraction in [0, 1].
// A degenerate range is the midpoint.
func RangePosition(price, high, low float64) (float64, error) {
	switch {
	case high < low:
		return 0, errors.New("high must be >= low")
	case high == low:
		return 0.5, nil
	}
	return min(max((price-low)/(high-low), 0), 1), nil
}
