package job

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"marketplace/internal/api"
	"marketplace/internal/user"
)

type Handlers struct {
	Repo *Repository
}

type CreateRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Budget      string          `json:"budget"`
	DefaultPlan json.RawMessage `json:"defaultPlan"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	if u.Role != user.RoleClient {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only clients can post jobs")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	fields := api.Validate(&req)
	if strings.TrimSpace(req.Title) == "" && req.Title != "" {
		fields = append(fields, api.FieldError{Field: "title", Message: "is required"})
	}
	if req.Budget != "" {
		b, err := decimal.NewFromString(req.Budget)
		if err != nil {
			fields = append(fields, api.FieldError{Field: "budget", Message: "must be a number"})
		} else if b.LessThanOrEqual(decimal.Zero) {
			fields = append(fields, api.FieldError{Field: "budget", Message: "must be greater than 0"})
		}
	}
	if len(req.DefaultPlan) > 0 {
		if _, err := ParsePlan(req.DefaultPlan); err != nil {
			fields = append(fields, api.FieldError{Field: "defaultPlan", Message: err.Error()})
		}
	}
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	rec, err := h.Repo.Insert(r.Context(), &Job{
		ClientID:    u.ID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		DefaultPlan: req.DefaultPlan,
	})
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusCreated, rec)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	var (
		items []Job
		err   error
	)
	if r.URL.Query().Get("mine") == "true" {
		items, err = h.Repo.ListByClient(r.Context(), u.ID)
	} else {
		items, err = h.Repo.ListOpen(r.Context())
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	rec, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, rec)
}
