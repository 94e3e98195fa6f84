package booking

import (
	"encoding/json"
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/proof"
)

// CreateProof attaches a completion proof to a live booking. Proofs are
// immutable once written.
func (h Handlers) CreateProof(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	var req proof.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	fields, kind := req.Validate()
	if len(fields) > 0 {
		api.WriteValidationError(w, fields)
		return
	}

	b, ok := h.load(w, r, u)
	if !ok {
		return
	}
	if b.Status != StatusActive && b.Status != StatusDisputed {
		api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "booking is closed")
		return
	}

	rec, err := h.Proofs.Insert(r.Context(), &proof.Proof{
		BookingID:   b.ID,
		UploaderID:  u.ID,
		Kind:        kind,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusCreated, rec)
}

func (h Handlers) ListProofs(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
		return
	}

	b, ok := h.load(w, r, u)
	if !ok {
		return
	}

	items, err := h.Proofs.ListByBooking(r.Context(), b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
