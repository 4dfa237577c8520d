package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terranet-ag/onboarding-service/internal/models/errs"
)

func TestCalculate(t *testing.T) {
	fields := []FieldInput{
		{FieldID: "f1", Name: "North", Acres: 100},
		{FieldID: "f2", Name: "South", Acres: 50.5},
	}

	tests := []struct {
		name          string
		program       Program
		wantAnnual    float64
		wantFee       float64
		wantFirstYear float64
	}{
		{
			name:          "remote only at $7/ac",
			program:       RemoteOnly,
			wantAnnual:    1053.5,
			wantFee:       0,
			wantFirstYear: 1053.5,
		},
		{
			name:          "sprayer plus remote at $5/ac with setup fee",
			program:       SprayerPlusRemote,
			wantAnnual:    752.5,
			wantFee:       2000,
			wantFirstYear: 2752.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Calculate("q_test_1", "g1", tt.program, fields)
			require.NoError(t, err)

			assert.Equal(t, "q_test_1", quote.QuoteID)
			assert.Equal(t, tt.program, quote.ProgramType)
			require.Len(t, quote.Lines, 2)
			assert.InDelta(t, tt.wantAnnual, quote.AnnualTotal, 1e-9)
			assert.InDelta(t, tt.wantFee, quote.SprayerFee, 1e-9)
			assert.InDelta(t, tt.wantFirstYear, quote.TotalDueFirstYear, 1e-9)

			// Per-line amounts must sum to the annual total.
			var sum float64
			for _, line := range quote.Lines {
				sum += line.AnnualAmount
			}
			assert.InDelta(t, quote.AnnualTotal, sum, 1e-9)
		})
	}
}

func TestCalculateUnknownProgram(t *testing.T) {
	_, err := Calculate("q", "g", Program("DRONE_ONLY"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestCalculateNoFields(t *testing.T) {
	quote, err := Calculate("q", "g", RemoteOnly, nil)
	require.NoError(t, err)
	assert.Empty(t, quote.Lines)
	assert.Zero(t, quote.AnnualTotal)
}
