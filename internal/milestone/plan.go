package milestone

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PlanItem is one line of a job's default milestone plan, expressed as a
// percentage of the booking's final budget.
type PlanItem struct {
	Description string          `json:"description"`
	Percent     decimal.Decimal `json:"percent"`
}

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidatePlan enforces the default-plan contract:
// - At least one item, every item described, every percent > 0.
// - Percentages must sum to exactly 100.
func ValidatePlan(items []PlanItem) error {
	if len(items) == 0 {
		return ValidationError{Code: "PLAN_EMPTY", Message: "milestone plan cannot be empty"}
	}

	sum := decimal.Zero
	for _, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return ValidationError{Code: "PLAN_DESCRIPTION_REQUIRED", Message: "every plan item needs a description"}
		}
		if it.Percent.LessThanOrEqual(decimal.Zero) {
			return ValidationError{Code: "PLAN_PERCENT_INVALID", Message: "plan percent must be > 0"}
		}
		sum = sum.Add(it.Percent)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		return ValidationError{Code: "PLAN_SUM_INVALID", Message: "plan percentages must sum to 100"}
	}

	return nil
}

type CurrencyScale int32

const DefaultCurrencyScale CurrencyScale = 2

// ExpandedMilestone is an instance amount computed from a plan item.
type ExpandedMilestone struct {
	Description string
	Amount      decimal.Decimal
}

// ExpandPlan computes concrete milestone amounts from a percentage plan.
//
// Rules:
// - Percentages are applied against the full budget (not remaining) for determinism.
// - Rounding is applied to the configured scale; any rounding delta lands on
//   the last milestone to force sum equality with the budget.
func ExpandPlan(budget decimal.Decimal, items []PlanItem, scale CurrencyScale) ([]ExpandedMilestone, error) {
	if err := ValidatePlan(items); err != nil {
		return nil, err
	}
	if budget.LessThanOrEqual(decimal.Zero) {
		return nil, ValidationError{Code: "BUDGET_INVALID", Message: "final budget must be > 0"}
	}

	if scale <= 0 {
		scale = DefaultCurrencyScale
	}

	out := make([]ExpandedMilestone, 0, len(items))
	sum := decimal.Zero
	for _, it := range items {
		amt := budget.Mul(it.Percent).Div(decimal.NewFromInt(100)).Round(int32(scale))
		out = append(out, ExpandedMilestone{Description: it.Description, Amount: amt})
		sum = sum.Add(amt)
	}

	delta := budget.Round(int32(scale)).Sub(sum)
	if !delta.IsZero() {
		last := len(out) - 1
		out[last].Amount = out[last].Amount.Add(delta).Round(int32(scale))
		sum = sum.Add(delta).Round(int32(scale))
	}

	if !sum.Equal(budget.Round(int32(scale))) {
		return nil, ValidationError{Code: "PLAN_SUM_MISMATCH", Message: "expanded amounts do not sum to the final budget"}
	}
	if out[len(out)-1].Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ValidationError{Code: "PLAN_LAST_AMOUNT_INVALID", Message: "last milestone amount must be > 0"}
	}

	return out, nil
}
