package quote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/terranet-ag/onboarding-service/internal/models/errs"
	"github.com/terranet-ag/onboarding-service/internal/pricing"
)

// PreviewParams defines parameters for Preview.
type PreviewParams struct {
	QuoteID     string               `json:"quote_id"`
	GrowerID    string               `json:"grower_id"`
	ProgramType pricing.Program      `json:"program_type"`
	Fields      []pricing.FieldInput `json:"fields"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Pricing preview (POST /quote/preview).
	Preview(w http.ResponseWriter, r *http.Request, params PreviewParams)
}

// ServerInterfaceWrapper converts payloads to parameters.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

// Preview operation middleware.
func (siw *ServerInterfaceWrapper) Preview(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s",
			errs.ErrInvalidContentType, r.Header.Get("Content-Type")))
		return
	}

	var params PreviewParams

	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	if len(data) == 0 {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: empty body", errs.ErrInvalidPayload))
		return
	}

	if err = json.Unmarshal(data, &params); err != nil {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s", errs.ErrInvalidPayload, err))
		return
	}

	// ------------- Required JSON body parameters ---------------------

	if params.QuoteID == "" {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: quote_id", errs.ErrRequiredBodyParam))
		return
	}
	if params.GrowerID == "" {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: grower_id", errs.ErrRequiredBodyParam))
		return
	}

	siw.Handler.Preview(w, r, params)
}

// Handler creates http.Handler with routing matching spec.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

type ChiServerOptions struct {
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
	BaseRouter       chi.Router
	BaseURL          string
	Middlewares      []MiddlewareFunc
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}
		r.Post(options.BaseURL+"/quote/preview", wrapper.Preview)
	})

	return r
}

// isJSONContentType returns true if the content type is application/json.
func isJSONContentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i > -1 {
		contentType = contentType[0:i]
	}
	return contentType == "application/json"
}
