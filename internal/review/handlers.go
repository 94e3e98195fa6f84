package review

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace/internal/api"
	"marketplace/internal/audit"
	"marketplace/internal/booking"
	"marketplace/internal/events"
	"marketplace/pkg/db"
)

type Handlers struct {
	DB       *pgxpool.Pool
	Reviews  *Repository
	Bookings *booking.Repository
}

// CanReview is the read-side of the gate. The UI calls it to decide whether
// to show the review form; Create re-checks inside a transaction regardless.
func (h Handlers) CanReview(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	bookingID := chi.URLParam(r, "bookingID")
	if bookingID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing bookingID")
		return
	}

	b, err := h.Bookings.GetByID(r.Context(), bookingID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return
	}

	hasReview, err := h.Reviews.HasReview(r.Context(), b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, Evaluate(b, u.ID, hasReview))
}

type CreateRequest struct {
	BookingID  string         `json:"bookingId" validate:"required,uuid"`
	Rating     int            `json:"rating" validate:"required,min=1,max=5"`
	Comment    string         `json:"comment" validate:"max=5000"`
	Categories map[string]int `json:"categories"`
	IsPublic   *bool          `json:"isPublic"`
}

// visibility resolves the optional isPublic flag. Reviews are public unless
// the reviewer opts out.
func visibility(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	fields := api.Validate(&req)
	for name, score := range req.Categories {
		if score < 1 || score > 5 {
			fields = append(fields, api.FieldError{Field: "categories." + name, Message: "must be between 1 and 5"})
		}
	}
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	var created *Review
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := booking.GetForUpdate(r.Context(), tx, req.BookingID)
		if err != nil {
			return err
		}

		hasReview, err := ExistsByBooking(r.Context(), tx, b.ID)
		if err != nil {
			return err
		}

		if d := Evaluate(b, u.ID, hasReview); !d.Allowed {
			status := http.StatusConflict
			if d.Reason == ReasonNotClient {
				status = http.StatusForbidden
			}
			api.WriteError(w, status, d.Reason, "review not allowed")
			return pgx.ErrTxCommitRollback
		}

		created, err = Insert(r.Context(), tx, &Review{
			BookingID:  b.ID,
			ReviewerID: u.ID,
			RevieweeID: b.WorkerID,
			Rating:     req.Rating,
			Comment:    req.Comment,
			Categories: req.Categories,
			IsPublic:   visibility(req.IsPublic),
		})
		if err != nil {
			return err
		}

		if err := events.Insert(r.Context(), tx, b.ID, "REVIEW_SUBMITTED", "Review submitted", u.ID, created.CreatedAt, map[string]any{
			"rating": created.Rating,
		}); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, u.ID, &b.ID, "REVIEW_SUBMITTED", map[string]any{"reviewId": created.ID})
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return
	}

	api.WriteJSON(w, http.StatusCreated, created)
}

func (h Handlers) GetByBooking(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	bookingID := chi.URLParam(r, "bookingID")
	if bookingID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing bookingID")
		return
	}

	rev, err := h.Reviews.GetByBooking(r.Context(), bookingID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "review not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, rev)
}
