package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/service"
)

const maxBodyBytes = 4 << 10

// RoomHandler handles HTTP requests for rooms and the caller's place in them
type RoomHandler struct {
	service FeedbackServicer
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(svc FeedbackServicer) *RoomHandler {
	return &RoomHandler{service: svc}
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

type questionRequest struct {
	Text string `json:"text"`
}

type roomResponse struct {
	RoomID string `json:"room_id"`
}

type questionResponse struct {
	QuestionID string `json:"question_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Str("module", "api").Msg("failed to encode response")
	}
}

// writeError maps service errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrRoomNotFound),
		errors.Is(err, service.ErrNotInRoom):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotHost):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Str("module", "api").Msg("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug().Err(err).Str("module", "api").Msg("invalid request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// listRooms handles GET /api/rooms
func (h *RoomHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListRoomSummaries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// createRoom handles POST /api/rooms
func (h *RoomHandler) createRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := h.service.CreateRoom(r.Context(), ParticipantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, roomResponse{RoomID: roomID})
}

// joinRoom handles POST /api/rooms/{roomID}/join
func (h *RoomHandler) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if err := h.service.JoinRoom(r.Context(), roomID, ParticipantID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{RoomID: roomID})
}

// view handles GET /api/me
func (h *RoomHandler) view(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), ParticipantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// setStatus handles PUT /api/me/status
func (h *RoomHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.service.SetStatus(r.Context(), ParticipantID(r.Context()), req.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// heartbeat handles POST /api/me/heartbeat
func (h *RoomHandler) heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Heartbeat(r.Context(), ParticipantID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitQuestion handles POST /api/me/questions
func (h *RoomHandler) submitQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	questionID, err := h.service.SubmitQuestion(r.Context(), ParticipantID(r.Context()), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	if questionID == "" {
		writeJSON(w, http.StatusOK, questionResponse{})
		return
	}
	writeJSON(w, http.StatusCreated, questionResponse{QuestionID: questionID})
}

// upvoteQuestion handles POST /api/me/questions/{questionID}/upvote
func (h *RoomHandler) upvoteQuestion(w http.ResponseWriter, r *http.Request) {
	err := h.service.UpvoteQuestion(r.Context(), ParticipantID(r.Context()), r.PathValue("questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// closeQuestion handles DELETE /api/me/questions/{questionID}
func (h *RoomHandler) closeQuestion(w http.ResponseWriter, r *http.Request) {
	err := h.service.CloseQuestion(r.Context(), ParticipantID(r.Context()), r.PathValue("questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// history handles GET /api/me/history
func (h *RoomHandler) history(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.StatusHistory(r.Context(), ParticipantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
