package booking

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"marketplace/internal/api"
	"marketplace/internal/audit"
	"marketplace/internal/events"
	"marketplace/internal/milestone"
	"marketplace/internal/user"
	"marketplace/pkg/db"
)

// Milestones returns the booking's payment schedule: every milestone with
// its read-time status plus the allocated and remaining totals.
func (h Handlers) ListMilestones(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	b, ok := h.load(w, r, u)
	if !ok {
		return
	}

	ms, ledger, err := h.milestonesWithLedger(r.Context(), b)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": ms, "ledger": ledger})
}

type addMilestoneRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	DueDate     string `json:"dueDate"`
}

// AddMilestone appends a pending line to the booking's ledger. The ledger is
// frozen once any milestone has been paid.
func (h Handlers) AddMilestone(w http.ResponseWriter, r *http.Request) {
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

	var req addMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	var fields []api.FieldError
	if strings.TrimSpace(req.Description) == "" {
		fields = append(fields, api.FieldError{Field: "description", Message: "is required"})
	}
	amount := decimal.Zero
	if req.Amount == "" {
		fields = append(fields, api.FieldError{Field: "amount", Message: "is required"})
	} else {
		a, err := decimal.NewFromString(req.Amount)
		switch {
		case err != nil:
			fields = append(fields, api.FieldError{Field: "amount", Message: "must be a number"})
		case a.LessThanOrEqual(decimal.Zero):
			fields = append(fields, api.FieldError{Field: "amount", Message: "must be greater than 0"})
		default:
			amount = a
		}
	}
	var due time.Time
	if req.DueDate == "" {
		fields = append(fields, api.FieldError{Field: "dueDate", Message: "is required"})
	} else {
		t, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			fields = append(fields, api.FieldError{Field: "dueDate", Message: "must be a date (YYYY-MM-DD)"})
		} else {
			due = t
		}
	}
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	var rec *milestone.Record
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if b.ClientID != u.ID && u.Role != user.RoleAdmin {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the client can amend milestones")
			return pgx.ErrTxCommitRollback
		}
		if b.Status != StatusActive {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "booking is not active")
			return pgx.ErrTxCommitRollback
		}
		if due.Before(b.StartDate) || due.After(b.ExpectedCompletionDate) {
			api.WriteValidationError(w, []api.FieldError{{Field: "dueDate", Message: "must fall between startDate and expectedCompletionDate"}})
			return pgx.ErrTxCommitRollback
		}

		paid, err := milestone.AnyPaid(r.Context(), tx, b.ID)
		if err != nil {
			return err
		}
		if paid {
			api.WriteError(w, http.StatusConflict, "LEDGER_LOCKED", "milestones cannot change after the first payment")
			return pgx.ErrTxCommitRollback
		}

		existing, err := milestone.ListByBookingTx(r.Context(), tx, b.ID)
		if err != nil {
			return err
		}
		amounts := make([]decimal.Decimal, 0, len(existing))
		for _, m := range existing {
			a, err := decimal.NewFromString(m.Amount)
			if err != nil {
				return err
			}
			amounts = append(amounts, a)
		}
		budget, err := decimal.NewFromString(b.FinalBudget)
		if err != nil {
			return err
		}
		if err := milestone.CheckBudget(budget, amounts, amount); err != nil {
			api.WriteError(w, http.StatusConflict, "BUDGET_EXCEEDED", "milestone amounts exceed the final budget")
			return pgx.ErrTxCommitRollback
		}

		seq, err := milestone.NextSequence(r.Context(), tx, b.ID)
		if err != nil {
			return err
		}
		rec, err = milestone.Insert(r.Context(), tx, b.ID, seq, req.Description, amount.String(), due)
		if err != nil {
			return err
		}

		if err := events.Insert(r.Context(), tx, b.ID, "MILESTONE_ADDED", "Milestone added", u.ID, time.Now(), map[string]any{
			"milestoneId": rec.ID, "amount": rec.Amount,
		}); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, u.ID, &b.ID, "MILESTONE_ADDED", map[string]any{"milestoneId": rec.ID})
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return
	}

	api.WriteJSON(w, http.StatusCreated, rec)
}

func (h Handlers) RemoveMilestone(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	id := chi.URLParam(r, "id")
	milestoneID := chi.URLParam(r, "milestoneID")
	if id == "" || milestoneID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if b.ClientID != u.ID && u.Role != user.RoleAdmin {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the client can amend milestones")
			return pgx.ErrTxCommitRollback
		}
		if b.Status != StatusActive {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "booking is not active")
			return pgx.ErrTxCommitRollback
		}

		m, err := milestone.GetForUpdate(r.Context(), tx, milestoneID)
		if err != nil || m.BookingID != b.ID {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "milestone not found")
			return pgx.ErrTxCommitRollback
		}
		if m.Status == milestone.StatusPaid {
			api.WriteError(w, http.StatusConflict, "MILESTONE_ALREADY_PAID", "paid milestones cannot be removed")
			return pgx.ErrTxCommitRollback
		}

		paid, err := milestone.AnyPaid(r.Context(), tx, b.ID)
		if err != nil {
			return err
		}
		if paid {
			api.WriteError(w, http.StatusConflict, "LEDGER_LOCKED", "milestones cannot change after the first payment")
			return pgx.ErrTxCommitRollback
		}

		if err := milestone.Delete(r.Context(), tx, m.ID); err != nil {
			return err
		}

		if err := events.Insert(r.Context(), tx, b.ID, "MILESTONE_REMOVED", "Milestone removed", u.ID, time.Now(), map[string]any{
			"milestoneId": m.ID, "amount": m.Amount,
		}); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, u.ID, &b.ID, "MILESTONE_REMOVED", map[string]any{"milestoneId": m.ID})
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
