// Package api implements the notely REST API using chi.
package api

import (
	"net/http"

	"github.com/starford/notely/internal/auth"
)

// RequireUser returns middleware that resolves the caller from the bearer
// token or session cookie and rejects anonymous requests.
func RequireUser(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := svc.FromRequest(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}
