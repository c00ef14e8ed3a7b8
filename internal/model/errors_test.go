package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"param", &ParamError{Field: "months", Reason: "out of range"}, KindInvalidParameter},
		{"provider", &DataUnavailableError{Ticker: "PEP", Source: "yahoo", Err: errors.New("502")}, KindDataUnavailable},
		{"provider timeout", &DataUnavailableError{Ticker: "PEP", Source: "yahoo", Err: context.DeadlineExceeded}, KindDataUnavailable},
		{"short series", &InsufficientDataError{Ticker: "PEP", Observations: 1, Reason: "need 2"}, KindInsufficientData},
		{"cancelled", context.Canceled, KindCancelled},
		{"wrapped cancel", fmt.Errorf("forecast PEP: %w", context.Canceled), KindCancelled},
		{"deadline", context.DeadlineExceeded, KindCancelled},
		{"other", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
