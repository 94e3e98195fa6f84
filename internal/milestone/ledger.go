package milestone

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"

	// StatusOverdue is derived at read time, never stored.
	StatusOverdue = "overdue"
)

// Ledger summarizes how much of a booking's final budget is partitioned into
// milestones. Remaining = final budget − allocated, and allocated must never
// exceed the budget.
type Ledger struct {
	Allocated decimal.Decimal `json:"allocated"`
	Remaining decimal.Decimal `json:"remaining"`
}

func ComputeLedger(finalBudget decimal.Decimal, amounts []decimal.Decimal) Ledger {
	allocated := decimal.Zero
	for _, a := range amounts {
		allocated = allocated.Add(a)
	}
	return Ledger{
		Allocated: allocated,
		Remaining: finalBudget.Sub(allocated),
	}
}

// CheckBudget rejects a mutation that would push the allocated total past the
// final budget. extra is the amount about to be added (zero for removals).
func CheckBudget(finalBudget decimal.Decimal, amounts []decimal.Decimal, extra decimal.Decimal) error {
	l := ComputeLedger(finalBudget, append(append([]decimal.Decimal{}, amounts...), extra))
	if l.Remaining.IsNegative() {
		return ValidationError{Code: "BUDGET_EXCEEDED", Message: "milestone amounts exceed the final budget"}
	}
	return nil
}

// EffectiveStatus reports the status a reader should see: a pending milestone
// past its due date reads as overdue.
func EffectiveStatus(stored string, dueDate time.Time, now time.Time) string {
	if stored == StatusPending && dueDate.Before(truncateToDay(now)) {
		return StatusOverdue
	}
	return stored
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
