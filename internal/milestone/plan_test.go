package milestone

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExpandPlan_RoundingDeltaAppliedToLast(t *testing.T) {
	budget := decimal.RequireFromString("100.00")
	items := []PlanItem{
		{Description: "deposit", Percent: decimal.NewFromInt(33)},
		{Description: "midpoint", Percent: decimal.NewFromInt(33)},
		{Description: "delivery", Percent: decimal.NewFromInt(34)},
	}

	got, err := ExpandPlan(budget, items, DefaultCurrencyScale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 milestones, got %d", len(got))
	}

	sum := decimal.Zero
	for _, m := range got {
		sum = sum.Add(m.Amount)
	}
	if !sum.Equal(budget) {
		t.Fatalf("expected sum %s, got %s", budget, sum)
	}
}

func TestExpandPlan_UnevenThirds(t *testing.T) {
	budget := decimal.RequireFromString("100.00")
	third := decimal.RequireFromString("33.3333")
	items := []PlanItem{
		{Description: "one", Percent: third},
		{Description: "two", Percent: third},
		{Description: "three", Percent: decimal.RequireFromString("33.3334")},
	}

	got, err := ExpandPlan(budget, items, DefaultCurrencyScale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := decimal.Zero
	for _, m := range got {
		sum = sum.Add(m.Amount)
	}
	if !sum.Equal(budget) {
		t.Fatalf("expected sum %s, got %s", budget, sum)
	}
}

func TestValidatePlan_SumMustBeHundred(t *testing.T) {
	items := []PlanItem{
		{Description: "deposit", Percent: decimal.NewFromInt(50)},
		{Description: "delivery", Percent: decimal.NewFromInt(40)},
	}
	if err := ValidatePlan(items); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidatePlan_RejectsBlankDescription(t *testing.T) {
	items := []PlanItem{
		{Description: "  ", Percent: decimal.NewFromInt(100)},
	}
	if err := ValidatePlan(items); err == nil {
		t.Fatalf("expected error")
	}
}
