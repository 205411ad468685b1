package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/navikt/lecturefeedback/internal/api"
	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/repository/memory"
	"github.com/navikt/lecturefeedback/internal/rooms"
	"github.com/navikt/lecturefeedback/internal/service"
)

func newTestMux(t *testing.T) (*http.ServeMux, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	registry := rooms.NewRegistry(clock, rooms.Options{HistoryMinInterval: time.Second, HistoryMaxSnapshots: 50})
	svc := service.NewFeedbackService(registry, memory.NewRepository(), clock, service.Options{
		PresenceTimeout:        time.Minute,
		HostTimeout:            time.Minute,
		MaintenanceInterval:    2 * time.Second,
		EmptyRoomSweepInterval: time.Minute,
	})
	return api.SetupRoutes(svc, nil, nil), clock
}

func do(t *testing.T, mux http.Handler, participant, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if participant != "" {
		req.Header.Set(api.ParticipantHeader, participant)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestRoomFlow(t *testing.T) {
	mux, _ := newTestMux(t)

	// Host creates a room
	rr := do(t, mux, "host", http.MethodPost, "/api/rooms", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	roomID := decode[map[string]string](t, rr)["room_id"]
	require.NotEmpty(t, roomID)

	// Participants join and report
	require.Equal(t, http.StatusOK, do(t, mux, "alice", http.MethodPost, "/api/rooms/"+roomID+"/join", "").Code)
	require.Equal(t, http.StatusOK, do(t, mux, "bob", http.MethodPost, "/api/rooms/"+roomID+"/join", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, mux, "alice", http.MethodPut, "/api/me/status", `{"status":"green"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, mux, "bob", http.MethodPut, "/api/me/status", `{"status":"RED"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, mux, "bob", http.MethodPost, "/api/me/heartbeat", "").Code)

	// Questions
	rr = do(t, mux, "alice", http.MethodPost, "/api/me/questions", `{"text":"Why?"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	questionID := decode[map[string]string](t, rr)["question_id"]
	require.NotEmpty(t, questionID)
	assert.Equal(t, http.StatusNoContent, do(t, mux, "bob", http.MethodPost, "/api/me/questions/"+questionID+"/upvote", "").Code)

	// Participant view
	rr = do(t, mux, "bob", http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[service.ParticipantView](t, rr)
	assert.True(t, view.InRoom)
	assert.Equal(t, roomID, view.RoomID)
	assert.Equal(t, service.RoleParticipant, view.Role)
	assert.Equal(t, models.StatusRed, view.Status)
	assert.Equal(t, models.StatusCounts{Unknown: 1, Green: 1, Red: 1}, view.Counts)
	require.Len(t, view.Questions, 1)
	assert.Equal(t, 2, view.Questions[0].Votes)
	assert.True(t, view.Questions[0].HasVoted)
	assert.False(t, view.Questions[0].Own)
	assert.NotContains(t, rr.Body.String(), "alice", "participant IDs are never exposed")

	// Host-only operations
	assert.Equal(t, http.StatusForbidden, do(t, mux, "bob", http.MethodGet, "/api/me/history", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, mux, "bob", http.MethodDelete, "/api/me/questions/"+questionID, "").Code)

	rr = do(t, mux, "host", http.MethodGet, "/api/me/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[service.HistoryView](t, rr)
	assert.NotEmpty(t, history.Snapshots)

	assert.Equal(t, http.StatusNoContent, do(t, mux, "host", http.MethodDelete, "/api/me/questions/"+questionID, "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, mux, "host", http.MethodDelete, "/api/me/questions/"+questionID, "").Code, "retried close succeeds")

	// Summaries
	rr = do(t, mux, "anyone", http.MethodGet, "/api/rooms", "")
	require.Equal(t, http.StatusOK, rr.Code)
	summaries := decode[[]models.RoomSummary](t, rr)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].ParticipantCount)
	assert.Equal(t, 0, summaries[0].OpenQuestions)
}

func TestRoomErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{name: "JoinUnknownRoom", method: http.MethodPost, path: "/api/rooms/zzz/join", code: http.StatusNotFound},
		{name: "StatusOutsideRoom", method: http.MethodPut, path: "/api/me/status", body: `{"status":"green"}`, code: http.StatusNotFound},
		{name: "InvalidStatus", method: http.MethodPut, path: "/api/me/status", body: `{"status":"purple"}`, code: http.StatusBadRequest},
		{name: "UnknownIsNotReportable", method: http.MethodPut, path: "/api/me/status", body: `{"status":"unknown"}`, code: http.StatusBadRequest},
		{name: "MalformedBody", method: http.MethodPost, path: "/api/me/questions", body: `{`, code: http.StatusBadRequest},
		{name: "HeartbeatOutsideRoom", method: http.MethodPost, path: "/api/me/heartbeat", code: http.StatusNotFound},
		{name: "HistoryOutsideRoom", method: http.MethodGet, path: "/api/me/history", code: http.StatusNotFound},
		{name: "WrongMethod", method: http.MethodDelete, path: "/api/rooms", code: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, mux, "stranger", tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
		})
	}
}

func TestUnknownStatusRejectedInsideRoom(t *testing.T) {
	mux, _ := newTestMux(t)

	require.Equal(t, http.StatusCreated, do(t, mux, "host", http.MethodPost, "/api/rooms", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, mux, "host", http.MethodPut, "/api/me/status", `{"status":"unknown"}`).Code)
}

func TestBlankQuestionIgnored(t *testing.T) {
	mux, _ := newTestMux(t)

	require.Equal(t, http.StatusCreated, do(t, mux, "host", http.MethodPost, "/api/rooms", "").Code)
	rr := do(t, mux, "host", http.MethodPost, "/api/me/questions", `{"text":"   "}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[map[string]string](t, rr)["question_id"])
}

func TestLobbyViewIssuesCookie(t *testing.T) {
	mux, _ := newTestMux(t)

	rr := do(t, mux, "", http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[service.ParticipantView](t, rr).InRoom)
	require.Len(t, rr.Result().Cookies(), 1)
	assert.Equal(t, api.ParticipantCookie, rr.Result().Cookies()[0].Name)
}

func TestHealthRoutesSkipParticipant(t *testing.T) {
	mux, _ := newTestMux(t)

	rr := do(t, mux, "", http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
}

// MockFeedbackService is a mock implementation of FeedbackServicer
type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) CreateRoom(ctx context.Context, participantID string) (string, error) {
	args := m.Called(ctx, participantID)
	return args.String(0), args.Error(1)
}

func (m *MockFeedbackService) JoinRoom(ctx context.Context, roomID, participantID string) error {
	return m.Called(ctx, roomID, participantID).Error(0)
}

func (m *MockFeedbackService) View(ctx context.Context, participantID string) (*service.ParticipantView, error) {
	args := m.Called(ctx, participantID)
	view, _ := args.Get(0).(*service.ParticipantView)
	return view, args.Error(1)
}

func (m *MockFeedbackService) SetStatus(ctx context.Context, participantID string, status models.Status) error {
	return m.Called(ctx, participantID, status).Error(0)
}

func (m *MockFeedbackService) Heartbeat(ctx context.Context, participantID string) error {
	return m.Called(ctx, participantID).Error(0)
}

func (m *MockFeedbackService) SubmitQuestion(ctx context.Context, participantID, text string) (string, error) {
	args := m.Called(ctx, participantID, text)
	return args.String(0), args.Error(1)
}

func (m *MockFeedbackService) UpvoteQuestion(ctx context.Context, participantID, questionID string) error {
	return m.Called(ctx, participantID, questionID).Error(0)
}

func (m *MockFeedbackService) CloseQuestion(ctx context.Context, participantID, questionID string) error {
	return m.Called(ctx, participantID, questionID).Error(0)
}

func (m *MockFeedbackService) StatusHistory(ctx context.Context, participantID string) (*service.HistoryView, error) {
	args := m.Called(ctx, participantID)
	history, _ := args.Get(0).(*service.HistoryView)
	return history, args.Error(1)
}

func (m *MockFeedbackService) ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error) {
	args := m.Called(ctx)
	summaries, _ := args.Get(0).([]models.RoomSummary)
	return summaries, args.Error(1)
}

func TestInternalErrorsAreHidden(t *testing.T) {
	svc := new(MockFeedbackService)
	svc.On("ListRoomSummaries", mock.Anything).Return(nil, errors.New("redis: connection refused"))
	svc.On("SetStatus", mock.Anything, "p1", models.StatusYellow).Return(nil)

	mux := api.SetupRoutes(svc, nil, nil)

	rr := do(t, mux, "p1", http.MethodGet, "/api/rooms", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "redis")

	rr = do(t, mux, "p1", http.MethodPut, "/api/me/status", `{"status":"yellow"}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	svc.AssertExpectations(t)
}

func TestEventsRoute(t *testing.T) {
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("stream")))
	})
	mux := api.SetupRoutes(new(MockFeedbackService), nil, events)

	rr := do(t, mux, "", http.MethodGet, "/events?stream=room-1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "room-1", rr.Body.String())
}
