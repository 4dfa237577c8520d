package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/terranet-ag/onboarding-service/internal/models/errs"
)

// Program is the service tier of a plan. It selects the per-acre rate
// and the one-time setup fee.
type Program string

const (
	RemoteOnly        Program = "REMOTE_ONLY"
	SprayerPlusRemote Program = "SPRAYER_PLUS_REMOTE"
)

// Pricing constants, $/ac/year and one-time.
var (
	remoteOnlyRate  = decimal.NewFromInt(7)
	sprayerRate     = decimal.NewFromInt(5)
	sprayerSetupFee = decimal.NewFromInt(2000)
)

// FieldInput is the minimal per-field payload needed to price a plan.
type FieldInput struct {
	FieldID string  `json:"field_id"`
	Name    string  `json:"name"`
	Acres   float64 `json:"acres"`
}

// Line is the yearly price of one field.
type Line struct {
	FieldID      string  `json:"field_id"`
	FieldName    string  `json:"field_name"`
	Acres        float64 `json:"acres"`
	AnnualAmount float64 `json:"annual_amount"`
}

// Quote is a full pricing breakdown for a proposed plan.
type Quote struct {
	QuoteID           string  `json:"quote_id"`
	GrowerID          string  `json:"grower_id"`
	ProgramType       Program `json:"program_type"`
	Lines             []Line  `json:"lines"`
	AnnualTotal       float64 `json:"annual_total"`
	SprayerFee        float64 `json:"sprayer_fee"`
	TotalDueFirstYear float64 `json:"total_due_first_year"`
}

// Calculate prices a proposed plan. Pure: no I/O, no stored state.
func Calculate(quoteID, growerID string, program Program, fields []FieldInput) (*Quote, error) {
	var rate, fee decimal.Decimal

	switch program {
	case RemoteOnly:
		rate = remoteOnlyRate
		fee = decimal.Zero
	case SprayerPlusRemote:
		rate = sprayerRate
		fee = sprayerSetupFee
	default:
		return nil, fmt.Errorf("%w: unknown program type %q", errs.ErrValidation, program)
	}

	lines := make([]Line, 0, len(fields))
	annualTotal := decimal.Zero

	for _, f := range fields {
		annual := decimal.NewFromFloat(f.Acres).Mul(rate)
		annualTotal = annualTotal.Add(annual)

		lines = append(lines, Line{
			FieldID:      f.FieldID,
			FieldName:    f.Name,
			Acres:        f.Acres,
			AnnualAmount: annual.InexactFloat64(),
		})
	}

	return &Quote{
		QuoteID:           quoteID,
		GrowerID:          growerID,
		ProgramType:       program,
		Lines:             lines,
		AnnualTotal:       annualTotal.InexactFloat64(),
		SprayerFee:        fee.InexactFloat64(),
		TotalDueFirstYear: annualTotal.Add(fee).InexactFloat64(),
	}, nil
}
