package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"marketplace/internal/adminaction"
	"marketplace/internal/api"
	"marketplace/internal/application"
	"marketplace/internal/audit"
	"marketplace/internal/events"
	"marketplace/internal/job"
	"marketplace/internal/milestone"
	"marketplace/internal/proof"
	"marketplace/internal/user"
	"marketplace/pkg/db"
)

type Handlers struct {
	DB           *pgxpool.Pool
	Bookings     *Repository
	Applications *application.Repository
	Jobs         *job.Repository
	Milestones   *milestone.Repository
	Proofs       *proof.Repository
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

	fields, plan := req.Validate(time.Now())
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	var (
		created *Booking
		lines   []milestone.Record
	)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		a, err := application.GetForUpdate(r.Context(), tx, req.ApplicationID)
		if err != nil {
			return err
		}

		j, err := h.Jobs.GetByID(r.Context(), a.JobID)
		if err != nil {
			return err
		}
		if j.ClientID != u.ID && u.Role != user.RoleAdmin {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the job's client can create the booking")
			return pgx.ErrTxCommitRollback
		}
		if a.Status != application.StatusAccepted {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "application is not accepted")
			return pgx.ErrTxCommitRollback
		}
		if a.BookingID != nil {
			api.WriteError(w, http.StatusConflict, "APPLICATION_ALREADY_CONVERTED", "application already has a booking")
			return pgx.ErrTxCommitRollback
		}

		// No explicit milestones: seed from the job's default percentage plan
		// when one exists.
		if len(plan.Milestones) == 0 && len(j.DefaultPlan) > 0 {
			cfg, err := job.ParsePlan(j.DefaultPlan)
			if err != nil {
				return err
			}
			if err := plan.ExpandDefault(cfg.Items); err != nil {
				api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
				return pgx.ErrTxCommitRollback
			}
		}

		created, err = Insert(r.Context(), tx, &Booking{
			ApplicationID:          a.ID,
			JobID:                  a.JobID,
			ClientID:               j.ClientID,
			WorkerID:               a.WorkerID,
			StartDate:              plan.Start,
			ExpectedCompletionDate: plan.Expected,
			FinalBudget:            plan.Budget.String(),
			Notes:                  req.Notes,
		})
		if err != nil {
			return err
		}

		for i, m := range plan.Milestones {
			rec, err := milestone.Insert(r.Context(), tx, created.ID, i, m.Description, m.Amount.String(), m.DueDate)
			if err != nil {
				return err
			}
			lines = append(lines, *rec)
		}

		if err := application.SetBooking(r.Context(), tx, a.ID, created.ID); err != nil {
			return err
		}

		now := time.Now()
		if err := events.Insert(r.Context(), tx, created.ID, "BOOKING_CREATED", "Booking created", u.ID, now, map[string]any{
			"applicationId": a.ID,
			"finalBudget":   created.FinalBudget,
			"milestones":    len(lines),
		}); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, u.ID, &created.ID, "BOOKING_CREATED", map[string]any{"applicationId": a.ID})
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{
		"booking":    created,
		"milestones": lines,
	})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
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

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"booking":    b,
		"milestones": ms,
		"ledger":     ledger,
	})
}

// milestonesWithLedger loads the booking's milestones with their read-time
// statuses and recomputes the allocation ledger.
func (h Handlers) milestonesWithLedger(ctx context.Context, b *Booking) ([]milestone.Record, milestone.Ledger, error) {
	ms, err := h.Milestones.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, milestone.Ledger{}, err
	}
	if ms == nil {
		ms = []milestone.Record{}
	}

	now := time.Now()
	amounts := make([]decimal.Decimal, 0, len(ms))
	for i := range ms {
		ms[i].Status = milestone.EffectiveStatus(ms[i].Status, ms[i].DueDate, now)
		if a, err := decimal.NewFromString(ms[i].Amount); err == nil {
			amounts = append(amounts, a)
		}
	}
	budget, _ := decimal.NewFromString(b.FinalBudget)
	return ms, milestone.ComputeLedger(budget, amounts), nil
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	items, err := h.Bookings.ListByUser(r.Context(), u.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	b, ok := h.load(w, r, u)
	if !ok {
		return
	}

	items, err := events.ListByBooking(r.Context(), h.DB, b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Start records that work has begun. It is a timeline event, not a status
// transition: the booking stays active.
func (h Handlers) Start(w http.ResponseWriter, r *http.Request) {
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

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if b.WorkerID != u.ID {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the worker can start work")
			return pgx.ErrTxCommitRollback
		}
		if b.Status != StatusActive {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "booking is not active")
			return pgx.ErrTxCommitRollback
		}
		return events.Insert(r.Context(), tx, b.ID, "WORK_STARTED", "Work started", u.ID, time.Now(), nil)
	})
	h.finishTransition(w, err)
}

type completeRequest struct {
	Proofs []proof.CreateRequest `json:"proofs"`
}

type transitionError struct {
	status  int
	code    string
	message string
}

// checkCompletion applies the completion rules: the booking must be able to
// move to completed, and at least one proof must be on record once inline
// submissions are counted. A zero-proof attempt is a request defect, not a
// state conflict, and must leave the booking untouched.
func checkCompletion(current Status, proofTotal int) *transitionError {
	if !CanTransition(current, StatusCompleted) {
		return &transitionError{http.StatusConflict, "INVALID_STATE_TRANSITION", "booking cannot be completed from " + string(current)}
	}
	if proofTotal == 0 {
		return &transitionError{http.StatusBadRequest, "VALIDATION_FAILED", "at least one completion proof is required"}
	}
	return nil
}

// Complete closes the booking as done. Proofs may arrive inline with the
// call; they are persisted in the same transaction, and the total (existing
// plus submitted) must be at least one.
func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
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

	var req completeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var fields []api.FieldError
	kinds := make([]proof.Kind, len(req.Proofs))
	for i, p := range req.Proofs {
		pf, kind := p.Validate()
		for _, f := range pf {
			f.Field = fmt.Sprintf("proofs[%d].%s", i, f.Field)
			fields = append(fields, f)
		}
		kinds[i] = kind
	}
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if b.ClientID != u.ID && u.Role != user.RoleAdmin {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the client can complete the booking")
			return pgx.ErrTxCommitRollback
		}
		for i, p := range req.Proofs {
			if _, err := proof.InsertTx(r.Context(), tx, &proof.Proof{
				BookingID:   b.ID,
				UploaderID:  u.ID,
				Kind:        kinds[i],
				URL:         p.URL,
				Description: p.Description,
			}); err != nil {
				return err
			}
		}

		const qProofs = `SELECT COUNT(*) FROM completion_proofs WHERE booking_id = $1`
		var proofs int
		if err := tx.QueryRow(r.Context(), qProofs, b.ID).Scan(&proofs); err != nil {
			return err
		}
		if te := checkCompletion(b.Status, proofs); te != nil {
			api.WriteError(w, te.status, te.code, te.message)
			return pgx.ErrTxCommitRollback
		}

		now := time.Now()
		if err := MarkCompleted(r.Context(), tx, b.ID, now, false); err != nil {
			return err
		}
		if err := events.Insert(r.Context(), tx, b.ID, "STATUS_CHANGED", "Booking completed", u.ID, now, map[string]any{
			"from": b.Status, "to": StatusCompleted,
		}); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, u.ID, &b.ID, "BOOKING_COMPLETED", map[string]any{"submittedProofs": len(req.Proofs)})
	})
	h.finishTransition(w, err)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	h.closeWithReason(w, r, StatusCancelled)
}

func (h Handlers) Dispute(w http.ResponseWriter, r *http.Request) {
	h.closeWithReason(w, r, StatusDisputed)
}

// closeWithReason handles the two reason-carrying transitions. Cancelling is
// allowed from active or disputed; disputing only from active.
func (h Handlers) closeWithReason(w http.ResponseWriter, r *http.Request, next Status) {
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

	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		api.WriteValidationError(w, []api.FieldError{{Field: "reason", Message: "is required"}})
		return
	}

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if b.ClientID != u.ID && b.WorkerID != u.ID && u.Role != user.RoleAdmin {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not your booking")
			return pgx.ErrTxCommitRollback
		}
		if !CanTransition(b.Status, next) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "booking cannot move to "+string(next)+" from "+string(b.Status))
			return pgx.ErrTxCommitRollback
		}

		switch next {
		case StatusCancelled:
			err = MarkCancelled(r.Context(), tx, b.ID, req.Reason)
		case StatusDisputed:
			err = MarkDisputed(r.Context(), tx, b.ID, req.Reason)
		}
		if err != nil {
			return err
		}

		if err := events.Insert(r.Context(), tx, b.ID, "STATUS_CHANGED", "Booking "+string(next), u.ID, time.Now(), map[string]any{
			"from": b.Status, "to": next, "reason": req.Reason,
		}); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, u.ID, &b.ID, "BOOKING_"+strings.ToUpper(string(next)), map[string]any{"reason": req.Reason})
	})
	h.finishTransition(w, err)
}

type overrideRequest struct {
	Action      string `json:"action"`
	Reason      string `json:"reason"`
	MilestoneID string `json:"milestoneId"`
}

// AdminOverride applies one of the manual escape hatches. Every override is
// written to admin_actions and the audit log with its reason.
func (h Handlers) AdminOverride(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	if u.Role != user.RoleAdmin {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin only")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	var fields []api.FieldError
	action, ok := adminaction.ParseActionType(req.Action)
	if !ok {
		fields = append(fields, api.FieldError{Field: "action", Message: "is not a known override action"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		fields = append(fields, api.FieldError{Field: "reason", Message: "is required"})
	}
	if action == adminaction.ActionMarkMilestonePaid && req.MilestoneID == "" {
		fields = append(fields, api.FieldError{Field: "milestoneId", Message: "is required for MARK_MILESTONE_PAID"})
	}
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		meta := map[string]any{}

		switch action {
		case adminaction.ActionMarkMilestonePaid:
			m, err := milestone.GetForUpdate(r.Context(), tx, req.MilestoneID)
			if err != nil || m.BookingID != b.ID {
				api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "milestone not found")
				return pgx.ErrTxCommitRollback
			}
			if m.Status == milestone.StatusPaid {
				api.WriteError(w, http.StatusConflict, "MILESTONE_ALREADY_PAID", "milestone is already paid")
				return pgx.ErrTxCommitRollback
			}
			if err := milestone.MarkPaid(r.Context(), tx, m.ID, now); err != nil {
				return err
			}
			meta["milestoneId"] = m.ID

		case adminaction.ActionCompleteWithoutProof:
			if !CanTransition(b.Status, StatusCompleted) {
				api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "booking cannot be completed from "+string(b.Status))
				return pgx.ErrTxCommitRollback
			}
			if err := MarkCompleted(r.Context(), tx, b.ID, now, true); err != nil {
				return err
			}

		case adminaction.ActionReopenBooking:
			if b.Status != StatusDisputed {
				api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "only disputed bookings can be reopened")
				return pgx.ErrTxCommitRollback
			}
			if err := Reopen(r.Context(), tx, b.ID); err != nil {
				return err
			}
		}

		if err := adminaction.Insert(r.Context(), tx, b.ID, action, req.Reason, u.ID, meta); err != nil {
			return err
		}
		if err := events.Insert(r.Context(), tx, b.ID, "ADMIN_OVERRIDE", string(action), u.ID, now, meta); err != nil {
			return err
		}
		return audit.Insert(r.Context(), tx, u.ID, &b.ID, "ADMIN_OVERRIDE_"+string(action), map[string]any{"reason": req.Reason})
	})
	h.finishTransition(w, err)
}

// load resolves the {id} booking and enforces participant-or-admin access.
func (h Handlers) load(w http.ResponseWriter, r *http.Request, u *user.User) (*Booking, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return nil, false
	}

	b, err := h.Bookings.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return nil, false
	}
	if b.ClientID != u.ID && b.WorkerID != u.ID && u.Role != user.RoleAdmin {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not your booking")
		return nil, false
	}
	return b, true
}

func (h Handlers) finishTransition(w http.ResponseWriter, err error) {
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
