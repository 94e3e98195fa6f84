package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"marketplace/internal/api"
	"marketplace/internal/user"
	"marketplace/pkg/config"
	"marketplace/pkg/token"
)

type Handlers struct {
	Cfg   config.Config
	Users *user.Repository
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"` // client | worker
}

type TokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user"`
}

func (h Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	var fields []api.FieldError
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields = append(fields, api.FieldError{Field: "email", Message: "a valid email is required"})
	}
	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, api.FieldError{Field: "name", Message: "name is required"})
	}
	if len(req.Password) < minPasswordLength {
		fields = append(fields, api.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	role, err := user.ParseRole(req.Role)
	if err != nil || role == user.RoleAdmin {
		// Admin accounts are provisioned out of band.
		fields = append(fields, api.FieldError{Field: "role", Message: "role must be client or worker"})
	}
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	u, err := h.Users.Create(r.Context(), req.Email, strings.TrimSpace(req.Name), role, hash)
	if err != nil {
		if isUniqueViolation(err) {
			api.WriteError(w, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "email already registered")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	h.writeToken(w, u)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	u, err := h.Users.FindByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !CheckPassword(u.PasswordHash, req.Password) {
		// Same response for unknown email and bad password.
		api.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}
	if u.Status != "active" {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "account is not active")
		return
	}

	h.writeToken(w, u)
}

func (h Handlers) writeToken(w http.ResponseWriter, u *user.User) {
	now := time.Now()
	ttl := time.Duration(h.Cfg.Auth.TokenTTLMinutes) * time.Minute
	tok, err := token.Issue(h.Cfg.Auth.Secret, u.ID, string(u.Role), ttl, now)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:     tok,
		ExpiresAt: now.Add(ttl),
		User:      u,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
