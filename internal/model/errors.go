package model

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds reported to users, metrics and the run recorder.
const (
	KindInvalidParameter = "InvalidParameter"
	KindDataUnavailable  = "DataUnavailable"
	KindInsufficientData = "InsufficientData"
	KindCancelled        = "Cancelled"
	KindInternal         = "Internal"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrDataUnavailable  = errors.New("data unavailable")
	ErrInsufficientData = errors.New("insufficient data")
)

// ParamError reports a rejected request parameter.
type ParamError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParamError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

// DataUnavailableError reports that history for Ticker could not be retrieved.
type DataUnavailableError struct {
	Ticker string
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("data unavailable for %s (%s)", e.Ticker, e.Source)
	}
	return fmt.Sprintf("data unavailable for %s (%s): %v", e.Ticker, e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataUnavailable}
	}
	return []error{ErrDataUnavailable, e.Err}
}

// InsufficientDataError reports a series too short or too flat to fit.
type InsufficientDataError struct {
	Ticker       string
	Observations int
	Reason       string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %d observations, %s", e.Ticker, e.Observations, e.Reason)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// Kind maps err to one of the Kind constants. A nil error has kind "".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindInternal
	}
}
