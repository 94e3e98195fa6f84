package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/api"
	"marketplace/internal/milestone"
)

const dateLayout = "2006-01-02"

type MilestoneInput struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	DueDate     string `json:"dueDate"`
}

type CreateRequest struct {
	ApplicationID          string           `json:"applicationId" validate:"required,uuid"`
	StartDate              string           `json:"startDate" validate:"required"`
	ExpectedCompletionDate string           `json:"expectedCompletionDate" validate:"required"`
	FinalBudget            string           `json:"finalBudget" validate:"required"`
	Notes                  string           `json:"notes" validate:"max=2000"`
	Milestones             []MilestoneInput `json:"milestones"`
}

// PlannedMilestone is a validated milestone line ready to be inserted.
type PlannedMilestone struct {
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
}

// CreatePlan is the fully validated shape of a create request: parsed dates,
// a decimal budget, and the concrete milestone lines.
type CreatePlan struct {
	Budget     decimal.Decimal
	Start      time.Time
	Expected   time.Time
	Milestones []PlannedMilestone
}

// Validate collects every violation at once. Date and amount checks only run
// on fields that parsed, so one bad input never cascades into noise.
func (r *CreateRequest) Validate(now time.Time) ([]api.FieldError, *CreatePlan) {
	fields := api.Validate(r)

	plan := &CreatePlan{}

	today := truncateToDay(now)
	start, startOK := parseDate(r.StartDate, "startDate", &fields)
	expected, expectedOK := parseDate(r.ExpectedCompletionDate, "expectedCompletionDate", &fields)
	if startOK && start.Before(today) {
		fields = append(fields, api.FieldError{Field: "startDate", Message: "cannot be in the past"})
		startOK = false
	}
	if startOK && expectedOK && !expected.After(start) {
		fields = append(fields, api.FieldError{Field: "expectedCompletionDate", Message: "must be after startDate"})
		expectedOK = false
	}
	plan.Start, plan.Expected = start, expected

	budgetOK := false
	if r.FinalBudget != "" {
		b, err := decimal.NewFromString(r.FinalBudget)
		switch {
		case err != nil:
			fields = append(fields, api.FieldError{Field: "finalBudget", Message: "must be a number"})
		case b.LessThanOrEqual(decimal.Zero):
			fields = append(fields, api.FieldError{Field: "finalBudget", Message: "must be greater than 0"})
		default:
			plan.Budget = b
			budgetOK = true
		}
	}

	allocated := decimal.Zero
	for i, m := range r.Milestones {
		prefix := fmt.Sprintf("milestones[%d].", i)

		if strings.TrimSpace(m.Description) == "" {
			fields = append(fields, api.FieldError{Field: prefix + "description", Message: "is required"})
		}

		amount := decimal.Zero
		if m.Amount == "" {
			fields = append(fields, api.FieldError{Field: prefix + "amount", Message: "is required"})
		} else {
			a, err := decimal.NewFromString(m.Amount)
			switch {
			case err != nil:
				fields = append(fields, api.FieldError{Field: prefix + "amount", Message: "must be a number"})
			case a.LessThanOrEqual(decimal.Zero):
				fields = append(fields, api.FieldError{Field: prefix + "amount", Message: "must be greater than 0"})
			default:
				amount = a
				allocated = allocated.Add(a)
			}
		}

		if m.DueDate == "" {
			fields = append(fields, api.FieldError{Field: prefix + "dueDate", Message: "is required"})
		}
		due, ok := parseDate(m.DueDate, prefix+"dueDate", &fields)
		if ok && startOK && expectedOK && (due.Before(start) || due.After(expected)) {
			fields = append(fields, api.FieldError{Field: prefix + "dueDate", Message: "must fall between startDate and expectedCompletionDate"})
		}

		plan.Milestones = append(plan.Milestones, PlannedMilestone{
			Description: m.Description,
			Amount:      amount,
			DueDate:     due,
		})
	}

	if budgetOK && len(r.Milestones) > 0 {
		if allocated.GreaterThan(plan.Budget) {
			fields = append(fields, api.FieldError{Field: "milestones", Message: "amounts exceed the final budget"})
		}
	}

	if len(fields) > 0 {
		return fields, nil
	}
	return nil, plan
}

// ExpandDefault fills the plan's milestones from a job's percentage plan when
// the client supplied none. All expanded lines come due on the expected
// completion date.
func (p *CreatePlan) ExpandDefault(items []milestone.PlanItem) error {
	expanded, err := milestone.ExpandPlan(p.Budget, items, milestone.DefaultCurrencyScale)
	if err != nil {
		return err
	}
	for _, e := range expanded {
		p.Milestones = append(p.Milestones, PlannedMilestone{
			Description: e.Description,
			Amount:      e.Amount,
			DueDate:     p.Expected,
		})
	}
	return nil
}

func parseDate(value, field string, fields *[]api.FieldError) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		*fields = append(*fields, api.FieldError{Field: field, Message: "must be a date (YYYY-MM-DD)"})
		return time.Time{}, false
	}
	return t, true
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
