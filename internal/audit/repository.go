package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// Insert appends one audit row inside the caller's transaction. bookingID is
// nil for actions that are not tied to a booking (e.g. application decisions
// before conversion).
func Insert(ctx context.Context, tx pgx.Tx, actorUserID string, bookingID *string, action string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (actor_user_id, booking_id, action, metadata)
VALUES ($1, $2, $3, CAST($4 AS jsonb))
`
	_, err := tx.Exec(ctx, q, actorUserID, bookingID, action, s)
	return err
}
