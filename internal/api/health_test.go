package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/lecturefeedback/internal/api"
)

func decodeHealth(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var response api.HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	return response.Status
}

func TestHealthLive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(api.HealthLiveHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "UP", decodeHealth(t, rr))
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name   string
		check  api.ReadinessCheck
		code   int
		status string
	}{
		{name: "NoCheck", check: nil, code: http.StatusOK, status: "UP"},
		{name: "Healthy", check: func(context.Context) error { return nil }, code: http.StatusOK, status: "UP"},
		{
			name:   "Unhealthy",
			check:  func(context.Context) error { return errors.New("redis down") },
			code:   http.StatusServiceUnavailable,
			status: "DOWN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			rr := httptest.NewRecorder()

			api.HealthReadyHandler(tt.check).ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.status, decodeHealth(t, rr))
		})
	}
}
