package serverapp

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const PlayerCookie = "clicker_player"

type playerKey struct{}

// withPlayerID assigns every request a player id, issuing a cookie to new
// players.
func withPlayerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(PlayerCookie); err == nil {
			if parsed, err := uuid.Parse(strings.TrimSpace(c.Value)); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     PlayerCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   secureRequest(r),
			})
		}
		ctx := context.WithValue(r.Context(), playerKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PlayerIDFromRequest returns the id withPlayerID attached, or "".
func PlayerIDFromRequest(r *http.Request) string {
	id, _ := r.Context().Value(playerKey{}).(string)
	return id
}

func secureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}
