package application

import (
	"context"

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
id, job_id, worker_id, cover_letter, proposed_budget::text, estimated_completion_time,
availability_start_date, completion_date, status, COALESCE(rejection_reason,''), booking_id,
created_at, updated_at
`

func scanOne(row pgx.Row) (*Application, error) {
	var a Application
	if err := row.Scan(
		&a.ID, &a.JobID, &a.WorkerID, &a.CoverLetter, &a.ProposedBudget, &a.EstimatedCompletionTime,
		&a.AvailabilityStartDate, &a.CompletionDate, &a.Status, &a.RejectionReason, &a.BookingID,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) Insert(ctx context.Context, a *Application) (*Application, error) {
	const q = `
INSERT INTO applications (job_id, worker_id, cover_letter, proposed_budget, estimated_completion_time, availability_start_date, completion_date, status)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, 'pending')
RETURNING ` + columns
	return scanOne(r.db.QueryRow(ctx, q,
		a.JobID, a.WorkerID, a.CoverLetter, a.ProposedBudget, a.EstimatedCompletionTime,
		a.AvailabilityStartDate, a.CompletionDate,
	))
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Application, error) {
	const q = `SELECT ` + columns + ` FROM applications WHERE id = $1`
	return scanOne(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Application, error) {
	const q = `SELECT ` + columns + ` FROM applications WHERE id = $1 FOR UPDATE`
	return scanOne(tx.QueryRow(ctx, q, id))
}

// HasLive reports whether the worker already has a non-terminal application
// for the job. The partial unique index backs this up under concurrency.
func (r *Repository) HasLive(ctx context.Context, jobID, workerID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM applications
  WHERE job_id = $1 AND worker_id = $2 AND status IN ('pending', 'accepted')
)
`
	var live bool
	if err := r.db.QueryRow(ctx, q, jobID, workerID).Scan(&live); err != nil {
		return false, err
	}
	return live, nil
}

func (r *Repository) ListByJob(ctx context.Context, jobID string) ([]Application, error) {
	const q = `SELECT ` + columns + ` FROM applications WHERE job_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, jobID)
}

func (r *Repository) ListByWorker(ctx context.Context, workerID string) ([]Application, error) {
	const q = `SELECT ` + columns + ` FROM applications WHERE worker_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, workerID)
}

func (r *Repository) list(ctx context.Context, q string, arg any) ([]Application, error) {
	rows, err := r.db.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		a, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func UpdateStatus(ctx context.Context, tx pgx.Tx, id string, next Status, rejectionReason string) error {
	const q = `
UPDATE applications
SET status = $2, rejection_reason = NULLIF($3, ''), updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, string(next), rejectionReason)
	return err
}

// RejectOtherPending flips every other pending application for the job to
// rejected. Runs in the acceptance transaction so the job never shows two
// live accepted applications.
func RejectOtherPending(ctx context.Context, tx pgx.Tx, jobID, exceptID string) ([]string, error) {
	const q = `
UPDATE applications
SET status = 'rejected', rejection_reason = 'another application was accepted', updated_at = NOW()
WHERE job_id = $1 AND id <> $2 AND status = 'pending'
RETURNING id
`
	rows, err := tx.Query(ctx, q, jobID, exceptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func SetBooking(ctx context.Context, tx pgx.Tx, id, bookingID string) error {
	const q = `
UPDATE applications
SET booking_id = $2, updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, bookingID)
	return err
}
