package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"StockSeer/internal/model"
)

// DaysPerMonth converts a horizon in months to days. Months are a flat
// 30 days regardless of the calendar.
const DaysPerMonth = 30

const (
	MinMonths       = 1
	MaxMonths       = 24
	MaxTickerLength = 20
)

// Params is one forecast request.
type Params struct {
	Ticker string `json:"ticker"`
	Months int    `json:"months"`
}

// Normalize trims and upper-cases the ticker.
func (p Params) Normalize() Params {
	p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
	return p
}

// HorizonDays returns the horizon length in days.
func (p Params) HorizonDays() int { return p.Months * DaysPerMonth }

// Validate rejects an empty or malformed ticker and months outside
// [MinMonths, MaxMonths].
func (p Params) Validate() error {
	if err := ValidateTicker(p.Ticker); err != nil {
		return err
	}
	if p.Months < MinMonths || p.Months > MaxMonths {
		return &model.ParamError{
			Field:  "months",
			Value:  strconv.Itoa(p.Months),
			Reason: "must be between 1 and 24",
		}
	}
	return nil
}

// ValidateTicker checks a ticker symbol after trimming whitespace.
func ValidateTicker(ticker string) error {
	t := strings.TrimSpace(ticker)
	if t == "" {
		return &model.ParamError{Field: "ticker", Value: ticker, Reason: "must not be empty"}
	}
	if len(t) > MaxTickerLength {
		return &model.ParamError{Field: "ticker", Value: t, Reason: "too long"}
	}
	if strings.IndexFunc(t, unicode.IsSpace) >= 0 {
		return &model.ParamError{Field: "ticker", Value: t, Reason: "must not contain whitespace"}
	}
	return nil
}

// ValidateHorizonDays checks a horizon given directly in days.
func ValidateHorizonDays(days int) error {
	if days < MinMonths*DaysPerMonth || days > MaxMonths*DaysPerMonth {
		return &model.ParamError{
			Field:  "horizon",
			Value:  strconv.Itoa(days),
			Reason: "must be between 30 and 720 days",
		}
	}
	return nil
}
