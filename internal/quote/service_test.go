package quote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terranet-ag/onboarding-service/internal/pricing"
	"github.com/terranet-ag/onboarding-service/pkg/logger"
	"go.uber.org/zap"
)

func newTestHandler() http.Handler {
	service := NewService(logger.NewWithZap(zap.NewNop()))
	return HandlerWithOptions(service, ChiServerOptions{
		ErrorHandlerFunc: ErrorHandlerFunc,
	})
}

func TestPreviewHandler(t *testing.T) {
	handler := newTestHandler()

	payload := `{
		"quote_id": "q_Jane_Doe_1",
		"grower_id": "g-42",
		"program_type": "SPRAYER_PLUS_REMOTE",
		"fields": [
			{"field_id": "f1", "name": "North", "acres": 100},
			{"field_id": "f2", "name": "South", "acres": 50.5}
		]
	}`

	r := httptest.NewRequest(http.MethodPost, "/quote/preview", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var quote pricing.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))

	assert.Equal(t, "q_Jane_Doe_1", quote.QuoteID)
	assert.Equal(t, "g-42", quote.GrowerID)
	require.Len(t, quote.Lines, 2)
	assert.InDelta(t, 500.0, quote.Lines[0].AnnualAmount, 1e-9)
	assert.InDelta(t, 752.5, quote.AnnualTotal, 1e-9)
	assert.InDelta(t, 2000.0, quote.SprayerFee, 1e-9)
	assert.InDelta(t, 2752.5, quote.TotalDueFirstYear, 1e-9)
}

func TestPreviewOperationMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		payload     string
		wantCode    int
	}{
		{
			name:        "invalid content type",
			contentType: "text/plain",
			payload:     `{"quote_id":"q_1","grower_id":"g-1","program_type":"REMOTE_ONLY","fields":[]}`,
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "empty body",
			contentType: "application/json",
			payload:     "",
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			payload:     "{",
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "missing quote_id",
			contentType: "application/json",
			payload:     `{"grower_id":"g-1","program_type":"REMOTE_ONLY","fields":[]}`,
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "missing grower_id",
			contentType: "application/json",
			payload:     `{"quote_id":"q_1","program_type":"REMOTE_ONLY","fields":[]}`,
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "unknown program type",
			contentType: "application/json",
			payload:     `{"quote_id":"q_1","grower_id":"g-1","program_type":"DRONE_ONLY","fields":[]}`,
			wantCode:    http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler()

			r := httptest.NewRequest(http.MethodPost, "/quote/preview", strings.NewReader(tt.payload))
			r.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}
