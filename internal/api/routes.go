package api

import (
	"net/http"
)

// SetupRoutes configures the HTTP routes for the API. events serves the
// SSE stream and may be nil.
func SetupRoutes(svc FeedbackServicer, ready ReadinessCheck, events http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints for Kubernetes
	mux.HandleFunc("GET /health/live", HealthLiveHandler)
	mux.HandleFunc("GET /health/ready", HealthReadyHandler(ready))

	rooms := NewRoomHandler(svc)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/rooms", rooms.listRooms)
	apiMux.HandleFunc("POST /api/rooms", rooms.createRoom)
	apiMux.HandleFunc("POST /api/rooms/{roomID}/join", rooms.joinRoom)
	apiMux.HandleFunc("GET /api/me", rooms.view)
	apiMux.HandleFunc("PUT /api/me/status", rooms.setStatus)
	apiMux.HandleFunc("POST /api/me/heartbeat", rooms.heartbeat)
	apiMux.HandleFunc("POST /api/me/questions", rooms.submitQuestion)
	apiMux.HandleFunc("POST /api/me/questions/{questionID}/upvote", rooms.upvoteQuestion)
	apiMux.HandleFunc("DELETE /api/me/questions/{questionID}", rooms.closeQuestion)
	apiMux.HandleFunc("GET /api/me/history", rooms.history)
	mux.Handle("/api/", ParticipantMiddleware(apiMux))

	if events != nil {
		mux.Handle("GET /events", events)
	}

	return mux
}
