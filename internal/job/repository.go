package job

import (
	"context"
	"encoding/json"

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
id, client_id, title, COALESCE(description,''), COALESCE(budget::text,''), status, default_plan,
created_at, updated_at
`

func scanOne(row pgx.Row) (*Job, error) {
	var j Job
	var plan *string
	if err := row.Scan(
		&j.ID, &j.ClientID, &j.Title, &j.Description, &j.Budget, &j.Status, &plan,
		&j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if plan != nil {
		j.DefaultPlan = json.RawMessage(*plan)
	}
	return &j, nil
}

func (r *Repository) Insert(ctx context.Context, j *Job) (*Job, error) {
	const q = `
INSERT INTO jobs (client_id, title, description, budget, status, default_plan)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, '')::numeric, 'open', CAST($5 AS jsonb))
RETURNING ` + columns
	var plan *string
	if len(j.DefaultPlan) > 0 {
		s := string(j.DefaultPlan)
		plan = &s
	}
	return scanOne(r.db.QueryRow(ctx, q, j.ClientID, j.Title, j.Description, j.Budget, plan))
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Job, error) {
	const q = `SELECT ` + columns + ` FROM jobs WHERE id = $1`
	return scanOne(r.db.QueryRow(ctx, q, id))
}

func (r *Repository) ListOpen(ctx context.Context) ([]Job, error) {
	const q = `SELECT ` + columns + ` FROM jobs WHERE status = 'open' ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *Repository) ListByClient(ctx context.Context, clientID string) ([]Job, error) {
	const q = `SELECT ` + columns + ` FROM jobs WHERE client_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, clientID)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]Job, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// Close marks a job closed so it stops accepting applications. Runs in the
// acceptance transaction alongside the sibling-rejection sweep.
func Close(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `UPDATE jobs SET status = 'closed', updated_at = NOW() WHERE id = $1`
	_, err := tx.Exec(ctx, q, id)
	return err
}
