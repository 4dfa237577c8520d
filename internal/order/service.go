package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/terranet-ag/onboarding-service/internal/config"
	"github.com/terranet-ag/onboarding-service/internal/models/errs"
	"github.com/terranet-ag/onboarding-service/internal/models/status"
	"github.com/terranet-ag/onboarding-service/pkg/limiter"
	"github.com/terranet-ag/onboarding-service/pkg/logger"
)

type Service struct {
	store         Storage
	packetLimiter *limiter.Limiter
	logger        logger.Logger
	config        *config.Config
}

func NewService(store Storage, logger logger.Logger, config *config.Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("nil dependency: storage")
	}
	if config == nil {
		return nil, errors.New("nil dependency: config")
	}

	interval := config.Orders.PacketInterval
	if interval <= 0 {
		interval = time.Second
	}
	burst := config.Orders.PacketBurst
	if burst <= 0 {
		burst = 1
	}

	return &Service{
		store:         store,
		packetLimiter: limiter.New(interval, burst),
		logger:        logger,
		config:        config,
	}, nil
}

var _ ServerInterface = (*Service)(nil)

// Checkout persistence (POST /checkout/start).
func (s *Service) StartCheckout(w http.ResponseWriter, r *http.Request, params CheckoutParams) {
	snap := &Snapshot{
		Grower:      params.Grower,
		ProgramType: params.ProgramType,
		Fields:      params.Fields,
	}

	id, err := s.store.Create(r.Context(), snap)
	if err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}

	s.logger.With(r.Context(), "quote_id", id).Infof("order created")

	writeJSON(w, r, map[string]string{
		"quote_id": id,
		"message":  "Checkout draft saved. Next step: start payment session.",
	})
}

// Order list (GET /orders).
func (s *Service) ListOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}
	writeJSON(w, r, summaries)
}

// Order detail (GET /orders/{quoteID}).
func (s *Service) GetOrder(w http.ResponseWriter, r *http.Request, quoteID string) {
	detail, err := s.store.GetDetail(r.Context(), quoteID)
	if err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}
	writeJSON(w, r, detail)
}

// Order removal (DELETE /orders/{quoteID}).
func (s *Service) DeleteOrder(w http.ResponseWriter, r *http.Request, quoteID string) {
	if err := s.store.Delete(r.Context(), quoteID); err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}

	s.logger.With(r.Context(), "quote_id", quoteID).Infof("order deleted")

	writeJSON(w, r, map[string]any{
		"quote_id": quoteID,
		"deleted":  true,
	})
}

// Status read (GET /orders/{quoteID}/status).
func (s *Service) GetStatus(w http.ResponseWriter, r *http.Request, quoteID string) {
	st, err := s.store.Status(r.Context(), quoteID)
	if err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{
		"quote_id": quoteID,
		"status":   st,
	})
}

// Status update (POST /orders/{quoteID}/status).
func (s *Service) UpdateStatus(w http.ResponseWriter, r *http.Request, quoteID string, params StatusParams) {
	st := status.Status(params.Status)
	if err := s.store.SetStatus(r.Context(), quoteID, st); err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{
		"quote_id": quoteID,
		"status":   st,
	})
}

// Export download (GET /orders/{quoteID}/download/{filename}).
func (s *Service) DownloadExport(w http.ResponseWriter, r *http.Request, quoteID, filename string) {
	path, err := s.store.ExportPath(r.Context(), quoteID, filename)
	if err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

// Packet generation (POST /orders/{quoteID}/onboarding).
func (s *Service) GeneratePacket(w http.ResponseWriter, r *http.Request, quoteID string) {
	if !s.packetLimiter.Allow() {
		ErrorHandlerFunc(w, r, fmt.Errorf("%w: packet generation", errs.ErrRateLimit))
		return
	}

	if err := s.store.GeneratePacket(r.Context(), quoteID); err != nil {
		ErrorHandlerFunc(w, r, err)
		return
	}

	s.logger.With(r.Context(), "quote_id", quoteID).Infof("onboarding packet generated")

	writeJSON(w, r, map[string]string{
		"quote_id": quoteID,
		"packet":   packetFile,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ErrorHandlerFunc(w, r, err)
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request (400).
	case errors.Is(err, errs.ErrValidation) ||
		errors.Is(err, errs.ErrInvalidPayload) ||
		errors.Is(err, errs.ErrRequiredBodyParam) ||
		errors.Is(err, errs.ErrInvalidContentType) ||
		errors.Is(err, io.EOF):
		code = http.StatusBadRequest

	// Status Not Found (404).
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound

	// Status Too Many Requests (429).
	case errors.Is(err, errs.ErrRateLimit):
		code = http.StatusTooManyRequests

	// Status Internal Server Error (500): inconsistent or failing storage.
	case errors.Is(err, errs.ErrInconsistent) || errors.Is(err, errs.ErrStorage):
		code = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
