package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSeer/internal/model"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		field  string
	}{
		{"valid", Params{Ticker: "PEP", Months: 1}, ""},
		{"max months", Params{Ticker: "MSFT", Months: 24}, ""},
		{"index symbol", Params{Ticker: "^GSPC", Months: 6}, ""},
		{"zero months", Params{Ticker: "PEP", Months: 0}, "months"},
		{"too many months", Params{Ticker: "PEP", Months: 25}, "months"},
		{"negative months", Params{Ticker: "PEP", Months: -1}, "months"},
		{"empty ticker", Params{Ticker: "", Months: 1}, "ticker"},
		{"blank ticker", Params{Ticker: "   ", Months: 1}, "ticker"},
		{"inner space", Params{Ticker: "BR K", Months: 1}, "ticker"},
		{"too long", Params{Ticker: "ABCDEFGHIJKLMNOPQRSTU", Months: 1}, "ticker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Normalize().Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidParameter))
			var pe *model.ParamError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParams_NormalizeAndHorizon(t *testing.T) {
	p := Params{Ticker: "  tsla ", Months: 3}.Normalize()
	assert.Equal(t, "TSLA", p.Ticker)
	assert.Equal(t, 90, p.HorizonDays())
	assert.Equal(t, 720, Params{Months: MaxMonths}.HorizonDays())
}

func TestValidateHorizonDays(t *testing.T) {
	assert.NoError(t, ValidateHorizonDays(30))
	assert.NoError(t, ValidateHorizonDays(720))
	assert.ErrorIs(t, ValidateHorizonDays(29), model.ErrInvalidParameter)
	assert.ErrorIs(t, ValidateHorizonDays(721), model.ErrInvalidParameter)
	assert.ErrorIs(t, ValidateHorizonDays(0), model.ErrInvalidParameter)
}
