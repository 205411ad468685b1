package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// ParticipantCookie holds the browser's participant ID
	ParticipantCookie = "participant_id"
	// ParticipantHeader lets non-browser clients supply their own ID
	ParticipantHeader = "X-Participant-ID"

	maxParticipantIDLength = 64
)

type participantKey struct{}

// ParticipantID returns the participant ID stored by ParticipantMiddleware
func ParticipantID(ctx context.Context) string {
	id, _ := ctx.Value(participantKey{}).(string)
	return id
}

func validParticipantID(id string) bool {
	if id == "" || len(id) > maxParticipantIDLength {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r <= ' ' || r == 0x7f
	})
}

// ParticipantMiddleware identifies the caller. The header wins over the
// cookie; callers with neither get a new random ID in a session cookie.
func ParticipantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ParticipantHeader))
		if !validParticipantID(id) {
			id = ""
			if cookie, err := r.Cookie(ParticipantCookie); err == nil && validParticipantID(cookie.Value) {
				id = cookie.Value
			}
		}

		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ParticipantCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			log.Debug().Str("module", "api").Msg("new participant identity issued")
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), participantKey{}, id)))
	})
}
