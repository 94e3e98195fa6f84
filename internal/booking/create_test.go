package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/api"
	"marketplace/internal/milestone"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func validCreate() CreateRequest {
	return CreateRequest{
		ApplicationID:          "6b1de0a0-9a4f-4f6e-9d5c-0c2f5c1a2b3d",
		StartDate:              "2025-03-15",
		ExpectedCompletionDate: "2025-04-15",
		FinalBudget:            "500",
		Milestones: []MilestoneInput{
			{Description: "Design", Amount: "250", DueDate: "2025-03-25"},
			{Description: "Delivery", Amount: "250", DueDate: "2025-04-15"},
		},
	}
}

func TestCreateValidateOK(t *testing.T) {
	req := validCreate()
	fields, plan := req.Validate(testNow)
	if len(fields) != 0 {
		t.Fatalf("unexpected violations: %+v", fields)
	}
	if len(plan.Milestones) != 2 {
		t.Fatalf("expected 2 milestones, got %d", len(plan.Milestones))
	}

	allocated := decimal.Zero
	for _, m := range plan.Milestones {
		allocated = allocated.Add(m.Amount)
	}
	if !plan.Budget.Sub(allocated).IsZero() {
		t.Fatalf("expected fully allocated budget, remaining %s", plan.Budget.Sub(allocated))
	}
}

func TestCreateValidateRejectsPastStart(t *testing.T) {
	req := validCreate()
	req.StartDate = "2025-03-01"
	assertViolation(t, req, "startDate")
}

func TestCreateValidateRejectsExpectedBeforeStart(t *testing.T) {
	req := validCreate()
	req.ExpectedCompletionDate = "2025-03-14"
	assertViolation(t, req, "expectedCompletionDate")
}

func TestCreateValidateRejectsOverAllocation(t *testing.T) {
	req := validCreate()
	req.Milestones[1].Amount = "250.01"
	assertViolation(t, req, "milestones")
}

func TestCreateValidateRejectsDueDateOutsideWindow(t *testing.T) {
	req := validCreate()
	req.Milestones[0].DueDate = "2025-05-01"
	assertViolation(t, req, "milestones[0].dueDate")
}

func TestCreateValidateCollectsAllViolations(t *testing.T) {
	req := validCreate()
	req.FinalBudget = "-5"
	req.Milestones[0].Description = "  "
	req.Milestones[1].Amount = "abc"

	fields, plan := req.Validate(testNow)
	if plan != nil {
		t.Fatalf("expected nil plan on violation")
	}
	for _, want := range []string{"finalBudget", "milestones[0].description", "milestones[1].amount"} {
		if !hasField(fields, want) {
			t.Fatalf("missing violation for %s in %+v", want, fields)
		}
	}
}

func TestExpandDefaultFillsMilestones(t *testing.T) {
	req := validCreate()
	req.Milestones = nil
	fields, plan := req.Validate(testNow)
	if len(fields) != 0 {
		t.Fatalf("unexpected violations: %+v", fields)
	}

	items := []milestone.PlanItem{
		{Description: "Deposit", Percent: decimal.NewFromInt(50)},
		{Description: "Final", Percent: decimal.NewFromInt(50)},
	}
	if err := plan.ExpandDefault(items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Milestones) != 2 {
		t.Fatalf("expected 2 milestones, got %d", len(plan.Milestones))
	}
	for _, m := range plan.Milestones {
		if !m.Amount.Equal(decimal.NewFromInt(250)) {
			t.Fatalf("expected 250, got %s", m.Amount)
		}
		if !m.DueDate.Equal(plan.Expected) {
			t.Fatalf("expected due on expected completion date")
		}
	}
}

func assertViolation(t *testing.T, req CreateRequest, field string) {
	t.Helper()
	fields, plan := req.Validate(testNow)
	if plan != nil {
		t.Fatalf("expected nil plan on violation")
	}
	if !hasField(fields, field) {
		t.Fatalf("missing violation for %s in %+v", field, fields)
	}
}

func hasField(fields []api.FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
