package order

import (
	"github.com/shopspring/decimal"
	"github.com/terranet-ag/onboarding-service/internal/models/field"
	"github.com/terranet-ag/onboarding-service/internal/models/grower"
)

// Snapshot is the canonical record of an order's inputs, written once
// at creation. Every export is derived from it and from nothing else:
// in particular the totals are recomputed from the raw field payload,
// never taken from the pricing module.
type Snapshot struct {
	Grower      grower.Info    `json:"grower"`
	ProgramType string         `json:"program_type"`
	Fields      []field.Record `json:"fields"`
}

// Totals sums acreage and annual cost across all fields, rounded to
// two decimal places. Fields without a usable number contribute zero.
func (s *Snapshot) Totals() (acres, cost decimal.Decimal) {
	for _, f := range s.Fields {
		acres = acres.Add(decimal.NewFromFloat(f.Acres))
		if f.AnnualCost != nil {
			cost = cost.Add(decimal.NewFromFloat(*f.AnnualCost))
		}
	}
	return acres.Round(2), cost.Round(2)
}
