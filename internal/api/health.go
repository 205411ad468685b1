// Package api provides the HTTP handlers for the lecture feedback API
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HealthResponse represents the response for health check endpoints
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessCheck reports whether the application can serve traffic
type ReadinessCheck func(ctx context.Context) error

func writeHealth(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: status})
}

// HealthLiveHandler handles Kubernetes liveness checks
func HealthLiveHandler(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, "UP")
}

// HealthReadyHandler handles Kubernetes readiness checks.
// A nil check always reports ready.
func HealthReadyHandler(check ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				log.Warn().Err(err).Str("module", "api").Msg("readiness check failed")
				writeHealth(w, http.StatusServiceUnavailable, "DOWN")
				return
			}
		}
		writeHealth(w, http.StatusOK, "UP")
	}
}
