package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Review struct {
	ID         string         `json:"id"`
	BookingID  string         `json:"bookingId"`
	ReviewerID string         `json:"reviewerId"`
	RevieweeID string         `json:"revieweeId"`
	Rating     int            `json:"rating"`
	Comment    string         `json:"comment,omitempty"`
	Categories map[string]int `json:"categories,omitempty"`
	IsPublic   bool           `json:"isPublic"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert runs in the gate transaction. The unique index on booking_id backs
// up the one-review-per-booking rule under concurrent submissions.
func Insert(ctx context.Context, tx pgx.Tx, rev *Review) (*Review, error) {
	var cats *string
	if len(rev.Categories) > 0 {
		b, _ := json.Marshal(rev.Categories)
		s := string(b)
		cats = &s
	}
	const q = `
INSERT INTO reviews (booking_id, reviewer_id, reviewee_id, rating, comment, categories, is_public)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), CAST($6 AS jsonb), $7)
RETURNING id, booking_id, reviewer_id, reviewee_id, rating, COALESCE(comment,''), is_public, created_at
`
	var out Review
	if err := tx.QueryRow(ctx, q, rev.BookingID, rev.ReviewerID, rev.RevieweeID, rev.Rating, rev.Comment, cats, rev.IsPublic).Scan(
		&out.ID, &out.BookingID, &out.ReviewerID, &out.RevieweeID, &out.Rating, &out.Comment, &out.IsPublic, &out.CreatedAt,
	); err != nil {
		return nil, err
	}
	out.Categories = rev.Categories
	return &out, nil
}

func ExistsByBooking(ctx context.Context, tx pgx.Tx, bookingID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1)`
	var exists bool
	if err := tx.QueryRow(ctx, q, bookingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *Repository) GetByBooking(ctx context.Context, bookingID string) (*Review, error) {
	const q = `
SELECT id, booking_id, reviewer_id, reviewee_id, rating, COALESCE(comment,''), COALESCE(categories, '{}'::jsonb), is_public, created_at
FROM reviews
WHERE booking_id = $1
`
	var out Review
	var cats []byte
	if err := r.db.QueryRow(ctx, q, bookingID).Scan(
		&out.ID, &out.BookingID, &out.ReviewerID, &out.RevieweeID, &out.Rating, &out.Comment, &cats, &out.IsPublic, &out.CreatedAt,
	); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(cats, &out.Categories)
	return &out, nil
}

func (r *Repository) HasReview(ctx context.Context, bookingID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, q, bookingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
