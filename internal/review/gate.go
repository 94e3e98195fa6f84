package review

import "marketplace/internal/booking"

// Decision is the answer to "can this caller review this booking right now",
// with a machine-readable reason when the answer is no.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

const (
	ReasonNotCompleted  = "BOOKING_NOT_COMPLETED"
	ReasonNotClient     = "NOT_BOOKING_CLIENT"
	ReasonAlreadyExists = "REVIEW_ALREADY_EXISTS"
)

// Evaluate applies the review gate. All three conditions must hold: the
// booking is completed, the caller is its client, and no review exists yet.
func Evaluate(b *booking.Booking, callerID string, hasReview bool) Decision {
	switch {
	case b.Status != booking.StatusCompleted:
		return Decision{Reason: ReasonNotCompleted}
	case b.ClientID != callerID:
		return Decision{Reason: ReasonNotClient}
	case hasReview:
		return Decision{Reason: ReasonAlreadyExists}
	default:
		return Decision{Allowed: true}
	}
}
