package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const columns = `
id, application_id, job_id, client_id, worker_id, status, start_date, expected_completion_date,
actual_completion_date, final_budget::text, COALESCE(notes,''), completed_via_override,
COALESCE(cancellation_reason,''), COALESCE(dispute_reason,''), created_at, updated_at
`

func scanOne(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.ApplicationID, &b.JobID, &b.ClientID, &b.WorkerID, &b.Status, &b.StartDate, &b.ExpectedCompletionDate,
		&b.ActualCompletionDate, &b.FinalBudget, &b.Notes, &b.CompletedViaOverride,
		&b.CancellationReason, &b.DisputeReason, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert creates the booking inside the conversion transaction so the
// application link and the initial milestones commit atomically with it.
func Insert(ctx context.Context, tx pgx.Tx, b *Booking) (*Booking, error) {
	const q = `
INSERT INTO bookings (application_id, job_id, client_id, worker_id, status, start_date, expected_completion_date, final_budget, notes)
VALUES ($1, $2, $3, $4, 'active', $5, $6, $7::numeric, NULLIF($8, ''))
RETURNING ` + columns
	return scanOne(tx.QueryRow(ctx, q,
		b.ApplicationID, b.JobID, b.ClientID, b.WorkerID, b.StartDate, b.ExpectedCompletionDate,
		b.FinalBudget, b.Notes,
	))
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	const q = `SELECT ` + columns + ` FROM bookings WHERE id = $1`
	return scanOne(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Booking, error) {
	const q = `SELECT ` + columns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanOne(tx.QueryRow(ctx, q, id))
}

// ListByUser returns bookings the user participates in on either side.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Booking, error) {
	const q = `SELECT ` + columns + ` FROM bookings WHERE client_id = $1 OR worker_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func MarkCompleted(ctx context.Context, tx pgx.Tx, id string, actualCompletion time.Time, viaOverride bool) error {
	const q = `
UPDATE bookings
SET status = 'completed', actual_completion_date = $2, completed_via_override = $3, updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, actualCompletion, viaOverride)
	return err
}

func MarkCancelled(ctx context.Context, tx pgx.Tx, id, reason string) error {
	const q = `
UPDATE bookings
SET status = 'cancelled', cancellation_reason = $2, updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, reason)
	return err
}

func MarkDisputed(ctx context.Context, tx pgx.Tx, id, reason string) error {
	const q = `
UPDATE bookings
SET status = 'disputed', dispute_reason = $2, updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, reason)
	return err
}

// Reopen returns a disputed booking to active. Only reachable through an
// admin override, never through the public transition endpoints.
func Reopen(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `
UPDATE bookings
SET status = 'active', dispute_reason = NULL, updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id)
	return err
}
