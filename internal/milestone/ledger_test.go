package milestone

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestComputeLedger_FullyAllocated(t *testing.T) {
	budget := decimal.RequireFromString("500")
	amounts := []decimal.Decimal{
		decimal.RequireFromString("250"),
		decimal.RequireFromString("250"),
	}

	l := ComputeLedger(budget, amounts)
	if !l.Allocated.Equal(budget) {
		t.Fatalf("expected allocated %s, got %s", budget, l.Allocated)
	}
	if !l.Remaining.IsZero() {
		t.Fatalf("expected remaining 0, got %s", l.Remaining)
	}
}

func TestCheckBudget_RejectsOverAllocation(t *testing.T) {
	budget := decimal.RequireFromString("500")
	amounts := []decimal.Decimal{decimal.RequireFromString("400")}

	if err := CheckBudget(budget, amounts, decimal.RequireFromString("100.01")); err == nil {
		t.Fatalf("expected budget error")
	}
	if err := CheckBudget(budget, amounts, decimal.RequireFromString("100")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEffectiveStatus_PendingPastDueReadsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	if got := EffectiveStatus(StatusPending, due, now); got != StatusOverdue {
		t.Fatalf("expected overdue, got %s", got)
	}

	// Due today is not overdue yet.
	dueToday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := EffectiveStatus(StatusPending, dueToday, now); got != StatusPending {
		t.Fatalf("expected pending, got %s", got)
	}

	// Paid never reads overdue.
	if got := EffectiveStatus(StatusPaid, due, now); got != StatusPaid {
		t.Fatalf("expected paid, got %s", got)
	}
}
