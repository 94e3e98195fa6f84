package booking

import (
	"net/http"
	"testing"
)

func TestCheckCompletionRejectsZeroProofs(t *testing.T) {
	te := checkCompletion(StatusActive, 0)
	if te == nil {
		t.Fatal("expected a rejection")
	}
	if te.code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q, want VALIDATION_FAILED", te.code)
	}
	if te.status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", te.status, http.StatusBadRequest)
	}
}

func TestCheckCompletionAllowsWithProofs(t *testing.T) {
	if te := checkCompletion(StatusActive, 1); te != nil {
		t.Fatalf("active with one proof rejected: %+v", te)
	}
	if te := checkCompletion(StatusDisputed, 3); te != nil {
		t.Fatalf("disputed with proofs rejected: %+v", te)
	}
}

func TestCheckCompletionRejectsClosedBookings(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		te := checkCompletion(s, 2)
		if te == nil {
			t.Fatalf("%s: expected a rejection", s)
		}
		if te.code != "INVALID_STATE_TRANSITION" {
			t.Fatalf("%s: code = %q, want INVALID_STATE_TRANSITION", s, te.code)
		}
		if te.status != http.StatusConflict {
			t.Fatalf("%s: status = %d, want %d", s, te.status, http.StatusConflict)
		}
	}
}
