package proof

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

const insertQuery = `
INSERT INTO completion_proofs (booking_id, uploader_id, kind, url, description)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
RETURNING id, booking_id, uploader_id, kind, COALESCE(url,''), COALESCE(description,''), created_at
`

func (r *Repository) Insert(ctx context.Context, p *Proof) (*Proof, error) {
	var out Proof
	if err := r.db.QueryRow(ctx, insertQuery, p.BookingID, p.UploaderID, string(p.Kind), p.URL, p.Description).Scan(
		&out.ID, &out.BookingID, &out.UploaderID, &out.Kind, &out.URL, &out.Description, &out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// InsertTx writes a proof inside the caller's transaction, used when proofs
// arrive attached to the completion call.
func InsertTx(ctx context.Context, tx pgx.Tx, p *Proof) (*Proof, error) {
	var out Proof
	if err := tx.QueryRow(ctx, insertQuery, p.BookingID, p.UploaderID, string(p.Kind), p.URL, p.Description).Scan(
		&out.ID, &out.BookingID, &out.UploaderID, &out.Kind, &out.URL, &out.Description, &out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Proof, error) {
	const q = `
SELECT id, booking_id, uploader_id, kind, COALESCE(url,''), COALESCE(description,''), created_at
FROM completion_proofs
WHERE booking_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Proof
	for rows.Next() {
		var p Proof
		if err := rows.Scan(&p.ID, &p.BookingID, &p.UploaderID, &p.Kind, &p.URL, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
