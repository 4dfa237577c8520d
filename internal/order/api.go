package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/terranet-ag/onboarding-service/internal/models/errs"
	"github.com/terranet-ag/onboarding-service/internal/models/field"
	"github.com/terranet-ag/onboarding-service/internal/models/grower"
)

// CheckoutParams defines parameters for StartCheckout.
type CheckoutParams struct {
	Grower      grower.Info    `json:"grower"`
	ProgramType string         `json:"program_type"`
	Fields      []field.Record `json:"fields"`
}

// StatusParams defines parameters for UpdateStatus.
type StatusParams struct {
	Status string `json:"status"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Checkout persistence (POST /checkout/start).
	StartCheckout(w http.ResponseWriter, r *http.Request, params CheckoutParams)
	// Order list (GET /orders).
	ListOrders(w http.ResponseWriter, r *http.Request)
	// Order detail (GET /orders/{quoteID}).
	GetOrder(w http.ResponseWriter, r *http.Request, quoteID string)
	// Order removal (DELETE /orders/{quoteID}).
	DeleteOrder(w http.ResponseWriter, r *http.Request, quoteID string)
	// Status read (GET /orders/{quoteID}/status).
	GetStatus(w http.ResponseWriter, r *http.Request, quoteID string)
	// Status update (POST /orders/{quoteID}/status).
	UpdateStatus(w http.ResponseWriter, r *http.Request, quoteID string, params StatusParams)
	// Export download (GET /orders/{quoteID}/download/{filename}).
	DownloadExport(w http.ResponseWriter, r *http.Request, quoteID, filename string)
	// Packet generation (POST /orders/{quoteID}/onboarding).
	GeneratePacket(w http.ResponseWriter, r *http.Request, quoteID string)
}

// ServerInterfaceWrapper converts payloads to parameters.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

// StartCheckout operation middleware.
func (siw *ServerInterfaceWrapper) StartCheckout(w http.ResponseWriter, r *http.Request) {
	// ------------- Required application/json content type ------------

	if !isJSONContentType(r.Header.Get("Content-Type")) {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s",
			errs.ErrInvalidContentType, r.Header.Get("Content-Type")))
		return
	}

	// ------------- Parse and validate request body params ------------

	var params CheckoutParams

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

	// ------------- Required grower identity --------------------------

	if err = params.Grower.Validate(); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.Handler.StartCheckout(w, r, params)
}

// UpdateStatus operation middleware.
func (siw *ServerInterfaceWrapper) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s",
			errs.ErrInvalidContentType, r.Header.Get("Content-Type")))
		return
	}

	var params StatusParams

	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		if errors.Is(err, io.EOF) {
			siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: empty body", errs.ErrInvalidPayload))
			return
		}
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: %s", errs.ErrInvalidPayload, err))
		return
	}

	// ------------- Required JSON body parameter "status" -------------

	if params.Status == "" {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("%w: status", errs.ErrRequiredBodyParam))
		return
	}

	siw.Handler.UpdateStatus(w, r, chi.URLParam(r, "quoteID"), params)
}

// GetOrder operation middleware.
func (siw *ServerInterfaceWrapper) GetOrder(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GetOrder(w, r, chi.URLParam(r, "quoteID"))
}

// DeleteOrder operation middleware.
func (siw *ServerInterfaceWrapper) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	siw.Handler.DeleteOrder(w, r, chi.URLParam(r, "quoteID"))
}

// GetStatus operation middleware.
func (siw *ServerInterfaceWrapper) GetStatus(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GetStatus(w, r, chi.URLParam(r, "quoteID"))
}

// DownloadExport operation middleware.
func (siw *ServerInterfaceWrapper) DownloadExport(w http.ResponseWriter, r *http.Request) {
	siw.Handler.DownloadExport(w, r,
		chi.URLParam(r, "quoteID"), chi.URLParam(r, "filename"))
}

// GeneratePacket operation middleware.
func (siw *ServerInterfaceWrapper) GeneratePacket(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GeneratePacket(w, r, chi.URLParam(r, "quoteID"))
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

// HandlerFromMux creates http.Handler with routing matching spec.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter: r,
	})
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
		r.Post(options.BaseURL+"/checkout/start", wrapper.StartCheckout)
		r.Get(options.BaseURL+"/orders", si.ListOrders)
		r.Get(options.BaseURL+"/orders/{quoteID}", wrapper.GetOrder)
		r.Delete(options.BaseURL+"/orders/{quoteID}", wrapper.DeleteOrder)
		r.Get(options.BaseURL+"/orders/{quoteID}/status", wrapper.GetStatus)
		r.Post(options.BaseURL+"/orders/{quoteID}/status", wrapper.UpdateStatus)
		r.Get(options.BaseURL+"/orders/{quoteID}/download/{filename}", wrapper.DownloadExport)
		r.Post(options.BaseURL+"/orders/{quoteID}/onboarding", wrapper.GeneratePacket)
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
