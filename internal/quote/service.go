package quote

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/terranet-ag/onboarding-service/internal/models/errs"
	"github.com/terranet-ag/onboarding-service/internal/pricing"
	"github.com/terranet-ag/onboarding-service/pkg/logger"
)

type Service struct {
	logger logger.Logger
}

func NewService(logger logger.Logger) *Service {
	return &Service{logger: logger}
}

var _ ServerInterface = (*Service)(nil)

// Pricing preview (POST /quote/preview). Pure calculation, no stored
// state: the quote becomes durable only at checkout.
func (s *Service) Preview(w http.ResponseWriter, r *http.Request, params PreviewParams) {
	q, err := pricing.Calculate(params.QuoteID, params.GrowerID, params.ProgramType, params.Fields)
	if err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(q); err != nil {
		ErrorHandlerFunc(w, r, err)
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, errs.ErrValidation) ||
		errors.Is(err, errs.ErrInvalidPayload) ||
		errors.Is(err, errs.ErrRequiredBodyParam) ||
		errors.Is(err, errs.ErrInvalidContentType) ||
		errors.Is(err, io.EOF):
		code = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
