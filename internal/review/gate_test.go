package review

import (
	"testing"

	"marketplace/internal/booking"
)

func TestEvaluate(t *testing.T) {
	completed := &booking.Booking{ClientID: "client-1", Status: booking.StatusCompleted}

	cases := []struct {
		name      string
		b         *booking.Booking
		caller    string
		hasReview bool
		allowed   bool
		reason    string
	}{
		{"completed booking, client, no review", completed, "client-1", false, true, ""},
		{"active booking", &booking.Booking{ClientID: "client-1", Status: booking.StatusActive}, "client-1", false, false, ReasonNotCompleted},
		{"disputed booking", &booking.Booking{ClientID: "client-1", Status: booking.StatusDisputed}, "client-1", false, false, ReasonNotCompleted},
		{"cancelled booking", &booking.Booking{ClientID: "client-1", Status: booking.StatusCancelled}, "client-1", false, false, ReasonNotCompleted},
		{"caller is the worker", completed, "worker-1", false, false, ReasonNotClient},
		{"review already written", completed, "client-1", true, false, ReasonAlreadyExists},
	}
	for _, c := range cases {
		d := Evaluate(c.b, c.caller, c.hasReview)
		if d.Allowed != c.allowed || d.Reason != c.reason {
			t.Fatalf("%s: got %+v, want allowed=%v reason=%q", c.name, d, c.allowed, c.reason)
		}
	}
}
