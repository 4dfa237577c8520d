package grower

import (
	"fmt"
	"net/mail"

	"github.com/terranet-ag/onboarding-service/internal/models/errs"
)

// Info is the grower identity embedded in every order. Name and Email
// are required; everything else is optional contact detail copied
// verbatim into the order snapshot.
type Info struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	FarmName   string `json:"farmName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Address1   string `json:"address1,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Validate checks the required identity fields.
func (i *Info) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: grower.name", errs.ErrRequiredBodyParam)
	}
	if i.Email == "" {
		return fmt.Errorf("%w: grower.email", errs.ErrRequiredBodyParam)
	}
	if _, err := mail.ParseAddress(i.Email); err != nil {
		return fmt.Errorf("%w: grower.email %q is not a valid email address",
			errs.ErrInvalidPayload, i.Email)
	}
	return nil
}
