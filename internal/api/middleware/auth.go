package middleware

import (
	"net/http"

	"portfolio-tracker/internal/api/response"
	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/auth"
)

// RequireAuth rejects requests without a valid session cookie.
func RequireAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNotAuthenticated.Error(), nil)
				return
			}
			if _, err := manager.Verify(cookie.Value); err != nil {
				response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNotAuthenticated.Error(), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
