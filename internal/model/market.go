package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one daily bar of a security. Date is a calendar date
// held at UTC midnight.
type PriceObservation struct {
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Volume   int64           `json:"volume"`
}

// PriceSeries holds the daily history of one ticker over [Start, End].
// Observations are ordered by date ascending with unique dates.
type PriceSeries struct {
	Ticker       string             `json:"ticker"`
	Source       string             `json:"source"`
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	Observations []PriceObservation `json:"observations"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Observations)
}

// Tail returns the last n observations.
func (s *PriceSeries) Tail(n int) []PriceObservation {
	if s == nil || n <= 0 {
		return nil
	}
	if n > len(s.Observations) {
		n = len(s.Observations)
	}
	return s.Observations[len(s.Observations)-n:]
}

// Closes returns the closing prices as floats, oldest first.
func (s *PriceSeries) Closes() []float64 {
	if s == nil {
		return nil
	}
	closes := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		closes[i] = o.Close.InexactFloat64()
	}
	return closes
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
