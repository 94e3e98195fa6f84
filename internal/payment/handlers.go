package payment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace/internal/api"
	"marketplace/internal/audit"
	"marketplace/internal/booking"
	"marketplace/internal/events"
	"marketplace/internal/milestone"
	"marketplace/pkg/config"
	"marketplace/pkg/db"
)

type Handlers struct {
	Cfg config.Config
	DB  *pgxpool.Pool
}

// RequestPayment records that the worker asked the client to settle a
// milestone. It never changes the milestone's status: settlement arrives
// through the payment webhook or an admin override. Repeat calls return the
// existing request id unchanged.
func (h Handlers) RequestPayment(w http.ResponseWriter, r *http.Request) {
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

	var resp any
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		m, err := milestone.GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		b, err := booking.GetForUpdate(r.Context(), tx, m.BookingID)
		if err != nil {
			return err
		}
		if b.WorkerID != u.ID {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the worker can request payment")
			return pgx.ErrTxCommitRollback
		}
		if b.Status != booking.StatusActive && b.Status != booking.StatusDisputed {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "booking is closed")
			return pgx.ErrTxCommitRollback
		}

		if m.Status == milestone.StatusPaid {
			api.WriteError(w, http.StatusConflict, "MILESTONE_ALREADY_PAID", "milestone already paid")
			return pgx.ErrTxCommitRollback
		}

		// Idempotency: a milestone carries at most one open payment request.
		if m.PaymentRequestID != "" {
			resp = map[string]any{"paymentRequestId": m.PaymentRequestID, "provider": h.Cfg.Payments.Provider, "reference": referenceFor(m)}
			return nil
		}

		requestID := uuid.NewString()
		now := time.Now()
		if err := milestone.SetPaymentRequest(r.Context(), tx, m.ID, requestID, now); err != nil {
			return err
		}
		m.PaymentRequestID = requestID

		if err := audit.Insert(r.Context(), tx, u.ID, &m.BookingID, "MILESTONE_PAYMENT_REQUESTED", map[string]any{
			"milestoneId": m.ID, "paymentRequestId": requestID,
		}); err != nil {
			return err
		}
		if err := events.Insert(r.Context(), tx, m.BookingID, "MILESTONE_PAYMENT_REQUESTED", "Milestone payment requested", u.ID, now, map[string]any{
			"milestoneId": m.ID, "amount": m.Amount,
		}); err != nil {
			return err
		}

		resp = map[string]any{"paymentRequestId": requestID, "provider": h.Cfg.Payments.Provider, "reference": referenceFor(m)}
		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "milestone not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// referenceFor builds the provider reference string the payment webhook
// resolves back to a milestone.
func referenceFor(m *milestone.Record) string {
	return fmt.Sprintf("engagement: milestone_id=%s booking_id=%s", m.ID, m.BookingID)
}
