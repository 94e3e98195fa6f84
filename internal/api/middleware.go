package api

import (
	"net/http"
	"strings"
	"time"

	"marketplace/internal/user"
	"marketplace/pkg/config"
	"marketplace/pkg/token"
)

// UserAuth resolves the bearer access token to a user record and attaches it
// to the request context.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// In dev, if Authorization is missing, it can fall back to X-User-ID to keep
// local testing simple.
func UserAuth(cfg config.Config, users *user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				raw := strings.TrimSpace(authz[7:])
				vu, err := token.Verify(raw, cfg.Auth.Secret, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
					return
				}

				u, err := users.FindByID(r.Context(), vu.UserID)
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
					return
				}
				if u.Status != "active" {
					WriteError(w, http.StatusForbidden, "FORBIDDEN", "account is not active")
					return
				}

				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
					u, err := users.FindByID(r.Context(), id)
					if err != nil {
						WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
						return
					}
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
		})
	}
}
