package application

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace/internal/api"
	"marketplace/internal/audit"
	"marketplace/internal/job"
	"marketplace/internal/user"
	"marketplace/pkg/db"
)

type Handlers struct {
	DB           *pgxpool.Pool
	Applications *Repository
	Jobs         *job.Repository
}

func (h Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}
	if u.Role != user.RoleWorker {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only workers can apply")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	fields, _ := req.Validate()
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	j, err := h.Jobs.GetByID(r.Context(), req.JobID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
		return
	}
	if j.Status != job.StatusOpen {
		api.WriteError(w, http.StatusConflict, "JOB_CLOSED", "job is not accepting applications")
		return
	}
	if j.ClientID == u.ID {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "cannot apply to your own job")
		return
	}

	live, err := h.Applications.HasLive(r.Context(), req.JobID, u.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if live {
		api.WriteError(w, http.StatusConflict, "APPLICATION_ALREADY_EXISTS", "you already have a live application for this job")
		return
	}

	a := &Application{
		JobID:                   req.JobID,
		WorkerID:                u.ID,
		CoverLetter:             req.CoverLetter,
		ProposedBudget:          req.ProposedBudget,
		EstimatedCompletionTime: req.EstimatedCompletionTime,
	}
	if req.AvailabilityStartDate != "" {
		t, _ := time.Parse(dateLayout, req.AvailabilityStartDate)
		a.AvailabilityStartDate = &t
	}
	if req.CompletionDate != "" {
		t, _ := time.Parse(dateLayout, req.CompletionDate)
		a.CompletionDate = &t
	}

	rec, err := h.Applications.Insert(r.Context(), a)
	if err != nil {
		// Unique index race: two submits for the same (job, worker) pair.
		api.WriteError(w, http.StatusConflict, "APPLICATION_ALREADY_EXISTS", "you already have a live application for this job")
		return
	}

	api.WriteJSON(w, http.StatusCreated, rec)
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

	a, err := h.Applications.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	if !h.canView(r, u, a) {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not your application")
		return
	}

	api.WriteJSON(w, http.StatusOK, a)
}

// canView allows the applicant, the job's client, and admins.
func (h Handlers) canView(r *http.Request, u *user.User, a *Application) bool {
	if u.Role == user.RoleAdmin || a.WorkerID == u.ID {
		return true
	}
	j, err := h.Jobs.GetByID(r.Context(), a.JobID)
	return err == nil && j.ClientID == u.ID
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	if jobID := r.URL.Query().Get("jobId"); jobID != "" {
		j, err := h.Jobs.GetByID(r.Context(), jobID)
		if err != nil {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
			return
		}
		if j.ClientID != u.ID && u.Role != user.RoleAdmin {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not your job")
			return
		}
		items, err := h.Applications.ListByJob(r.Context(), jobID)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}

	items, err := h.Applications.ListByWorker(r.Context(), u.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

// rejectionReason keeps the applicant-visible reason exactly as supplied.
// The reason is optional; an omitted one stays empty.
func rejectionReason(next Status, raw string) string {
	if next != StatusRejected {
		return ""
	}
	return strings.TrimSpace(raw)
}

func (h Handlers) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, StatusAccepted)
}

func (h Handlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, StatusRejected)
}

func (h Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, StatusWithdrawn)
}

// decide moves a pending application to a terminal status. Accepting also
// rejects the job's other pending applications and closes the job, all in one
// transaction.
func (h Handlers) decide(w http.ResponseWriter, r *http.Request, next Status) {
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

	var req decisionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var out *Application
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		a, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		j, err := h.Jobs.GetByID(r.Context(), a.JobID)
		if err != nil {
			return err
		}

		switch next {
		case StatusAccepted, StatusRejected:
			if j.ClientID != u.ID && u.Role != user.RoleAdmin {
				api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the job's client can decide")
				return pgx.ErrTxCommitRollback
			}
		case StatusWithdrawn:
			if a.WorkerID != u.ID {
				api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the applicant can withdraw")
				return pgx.ErrTxCommitRollback
			}
		}

		if !CanTransition(a.Status, next) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "application is not pending")
			return pgx.ErrTxCommitRollback
		}

		reason := rejectionReason(next, req.Reason)
		if err := UpdateStatus(r.Context(), tx, a.ID, next, reason); err != nil {
			return err
		}

		meta := map[string]any{"from": a.Status, "to": next, "jobId": a.JobID}
		if next == StatusAccepted {
			rejected, err := RejectOtherPending(r.Context(), tx, a.JobID, a.ID)
			if err != nil {
				return err
			}
			if err := job.Close(r.Context(), tx, a.JobID); err != nil {
				return err
			}
			meta["autoRejected"] = rejected
		}
		if err := audit.Insert(r.Context(), tx, u.ID, nil, "APPLICATION_"+strings.ToUpper(string(next)), meta); err != nil {
			return err
		}

		refreshed := *a
		refreshed.Status = next
		if next == StatusRejected {
			refreshed.RejectionReason = reason
		}
		out = &refreshed
		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, out)
}
