package milestone

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Record struct {
	ID                 string     `json:"id"`
	BookingID          string     `json:"bookingId"`
	Sequence           int        `json:"sequence"`
	Description        string     `json:"description"`
	Amount             string     `json:"amount"`
	Status             string     `json:"status"`
	DueDate            time.Time  `json:"dueDate"`
	PaymentRequestID   string     `json:"paymentRequestId,omitempty"`
	PaymentRequestedAt *time.Time `json:"paymentRequestedAt,omitempty"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Record, error) {
	const q = `
SELECT id, booking_id, sequence, description, amount::text, status, due_date, payment_request_id, payment_requested_at, paid_at, created_at
FROM milestone_payments
WHERE booking_id = $1
ORDER BY sequence ASC
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var reqID *string
		if err := rows.Scan(&rec.ID, &rec.BookingID, &rec.Sequence, &rec.Description, &rec.Amount, &rec.Status, &rec.DueDate, &reqID, &rec.PaymentRequestedAt, &rec.PaidAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if reqID != nil {
			rec.PaymentRequestID = *reqID
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func ListByBookingTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]Record, error) {
	const q = `
SELECT id, booking_id, sequence, description, amount::text, status, due_date, payment_request_id, payment_requested_at, paid_at, created_at
FROM milestone_payments
WHERE booking_id = $1
ORDER BY sequence ASC
`
	rows, err := tx.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var reqID *string
		if err := rows.Scan(&rec.ID, &rec.BookingID, &rec.Sequence, &rec.Description, &rec.Amount, &rec.Status, &rec.DueDate, &reqID, &rec.PaymentRequestedAt, &rec.PaidAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if reqID != nil {
			rec.PaymentRequestID = *reqID
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func Insert(ctx context.Context, tx pgx.Tx, bookingID string, sequence int, description, amount string, dueDate time.Time) (*Record, error) {
	const q = `
INSERT INTO milestone_payments (booking_id, sequence, description, amount, status, due_date)
VALUES ($1, $2, $3, $4::numeric, 'pending', $5)
RETURNING id, booking_id, sequence, description, amount::text, status, due_date, created_at
`
	var rec Record
	if err := tx.QueryRow(ctx, q, bookingID, sequence, description, amount, dueDate).Scan(
		&rec.ID, &rec.BookingID, &rec.Sequence, &rec.Description, &rec.Amount, &rec.Status, &rec.DueDate, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, milestoneID string) (*Record, error) {
	const q = `
SELECT id, booking_id, sequence, description, amount::text, status, due_date, payment_request_id, payment_requested_at, paid_at, created_at
FROM milestone_payments
WHERE id = $1
FOR UPDATE
`
	var rec Record
	var reqID *string
	if err := tx.QueryRow(ctx, q, milestoneID).Scan(
		&rec.ID, &rec.BookingID, &rec.Sequence, &rec.Description, &rec.Amount, &rec.Status, &rec.DueDate, &reqID, &rec.PaymentRequestedAt, &rec.PaidAt, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if reqID != nil {
		rec.PaymentRequestID = *reqID
	}
	return &rec, nil
}

func Delete(ctx context.Context, tx pgx.Tx, milestoneID string) error {
	const q = `DELETE FROM milestone_payments WHERE id = $1`
	_, err := tx.Exec(ctx, q, milestoneID)
	return err
}

// AnyPaid reports whether any milestone of the booking has been settled.
// Amendments to the ledger are only allowed before the first payment.
func AnyPaid(ctx context.Context, tx pgx.Tx, bookingID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM milestone_payments WHERE booking_id = $1 AND status = 'paid')`
	var paid bool
	if err := tx.QueryRow(ctx, q, bookingID).Scan(&paid); err != nil {
		return false, err
	}
	return paid, nil
}

func NextSequence(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	const q = `SELECT COALESCE(MAX(sequence), -1) + 1 FROM milestone_payments WHERE booking_id = $1`
	var seq int
	if err := tx.QueryRow(ctx, q, bookingID).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func SetPaymentRequest(ctx context.Context, tx pgx.Tx, milestoneID, requestID string, requestedAt time.Time) error {
	const q = `
UPDATE milestone_payments
SET payment_request_id = $2,
    payment_requested_at = $3
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, milestoneID, requestID, requestedAt)
	return err
}

func MarkPaid(ctx context.Context, tx pgx.Tx, milestoneID string, paidAt time.Time) error {
	const q = `
UPDATE milestone_payments
SET status = 'paid', paid_at = $2
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, milestoneID, paidAt)
	return err
}
