package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace/internal/api"
	"marketplace/internal/audit"
	"marketplace/internal/events"
	"marketplace/internal/milestone"
	"marketplace/pkg/config"
	"marketplace/pkg/db"
)

// actorPaymentWebhook is recorded on audit and timeline rows written by the
// provider callback, where no user identity exists.
const actorPaymentWebhook = "payment-webhook"

type Handler struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	Log *zap.Logger
}

type paymentPayload struct {
	Type             string `json:"type"`
	Reference        string `json:"reference"`
	PaymentRequestID string `json:"payment_request_id"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	FailureReason    string `json:"failure_reason"`
}

// ServeHTTP processes payment provider callbacks. The provider retries on
// non-200 responses, so everything that is not a signature failure answers
// 200 even when the event cannot be applied.
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	signature := strings.TrimSpace(r.Header.Get("X-Payment-Signature"))
	eventID := strings.TrimSpace(r.Header.Get("X-Payment-Event-Id"))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	if !VerifySignature(body, signature, h.Cfg.Payments.WebhookSecret) {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook signature")
		return
	}

	var payload paymentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	eventType := NormalizeEventType(payload.Type)

	payloadHash := sha256Hex(body)
	if eventID == "" {
		// Fallback idempotency key when the event-id header is absent.
		eventID = payloadHash
	}

	// Idempotency gate and handler execution share one tx.
	if err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		if err := insertWebhookEvent(r.Context(), tx, eventType, eventID, payloadHash); err != nil {
			if isUniqueViolation(err) {
				h.Log.Debug("webhook already processed", zap.String("eventId", eventID), zap.String("type", eventType))
				return nil
			}
			return err
		}

		switch eventType {
		case "payment_succeeded":
			return h.handlePaymentSucceeded(r.Context(), tx, payload)
		case "payment_failed":
			return h.handlePaymentFailed(r.Context(), tx, payload)
		default:
			// Unknown type: accept so the provider stops retrying.
			return nil
		}
	}); err != nil {
		h.Log.Error("webhook tx failed", zap.String("eventId", eventID), zap.String("type", eventType), zap.Error(err))
	}

	w.WriteHeader(http.StatusOK)
}

// handlePaymentSucceeded settles the referenced milestone. Events that cannot
// be resolved to a milestone are dropped, not retried.
func (h Handler) handlePaymentSucceeded(ctx context.Context, tx pgx.Tx, payload paymentPayload) error {
	m, err := h.resolveMilestone(ctx, tx, payload)
	if err != nil || m == nil {
		return nil
	}
	if m.Status == milestone.StatusPaid {
		return nil
	}

	if payload.Amount != "" {
		paid, err1 := decimal.NewFromString(payload.Amount)
		want, err2 := decimal.NewFromString(m.Amount)
		if err1 != nil || err2 != nil || !paid.Equal(want) {
			h.Log.Warn("webhook amount mismatch",
				zap.String("milestoneId", m.ID),
				zap.String("expected", m.Amount),
				zap.String("got", payload.Amount))
			return nil
		}
	}

	now := time.Now()
	if err := milestone.MarkPaid(ctx, tx, m.ID, now); err != nil {
		return err
	}

	if err := audit.Insert(ctx, tx, actorPaymentWebhook, &m.BookingID, "MILESTONE_PAID", map[string]any{
		"milestoneId": m.ID, "paymentRequestId": m.PaymentRequestID,
	}); err != nil {
		return err
	}
	return events.Insert(ctx, tx, m.BookingID, "MILESTONE_PAID", "Milestone paid", actorPaymentWebhook, now, map[string]any{
		"milestoneId": m.ID, "amount": m.Amount,
	})
}

func (h Handler) handlePaymentFailed(ctx context.Context, tx pgx.Tx, payload paymentPayload) error {
	m, err := h.resolveMilestone(ctx, tx, payload)
	if err != nil || m == nil {
		return nil
	}

	return events.Insert(ctx, tx, m.BookingID, "PAYMENT_FAILED", "Milestone payment failed", actorPaymentWebhook, time.Now(), map[string]any{
		"milestoneId": m.ID, "reason": payload.FailureReason,
	})
}

// resolveMilestone locks the milestone named by the reference string, falling
// back to the payment request id when the reference is missing or mangled.
func (h Handler) resolveMilestone(ctx context.Context, tx pgx.Tx, payload paymentPayload) (*milestone.Record, error) {
	if id := ParseKeyFromReference(payload.Reference, "milestone_id"); id != "" {
		m, err := milestone.GetForUpdate(ctx, tx, id)
		if err == nil {
			return m, nil
		}
	}

	if payload.PaymentRequestID != "" {
		const q = `SELECT id FROM milestone_payments WHERE payment_request_id = $1`
		var id string
		if err := tx.QueryRow(ctx, q, payload.PaymentRequestID).Scan(&id); err == nil {
			return milestone.GetForUpdate(ctx, tx, id)
		}
	}

	h.Log.Warn("webhook could not resolve milestone",
		zap.String("reference", payload.Reference),
		zap.String("paymentRequestId", payload.PaymentRequestID))
	return nil, nil
}

func insertWebhookEvent(ctx context.Context, tx pgx.Tx, eventType, eventID, payloadHash string) error {
	const q = `
INSERT INTO payment_webhook_events (event_id, event_type, payload_hash, processed_at)
VALUES ($1, $2, $3, NOW())
`
	_, err := tx.Exec(ctx, q, eventID, eventType, payloadHash)
	return err
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
