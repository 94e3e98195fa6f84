package application

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/api"
)

type Application struct {
	ID                      string     `json:"id"`
	JobID                   string     `json:"jobId"`
	WorkerID                string     `json:"workerId"`
	CoverLetter             string     `json:"coverLetter"`
	ProposedBudget          string     `json:"proposedBudget"`
	EstimatedCompletionTime string     `json:"estimatedCompletionTime,omitempty"`
	AvailabilityStartDate   *time.Time `json:"availabilityStartDate,omitempty"`
	CompletionDate          *time.Time `json:"completionDate,omitempty"`
	Status                  Status     `json:"status"`
	RejectionReason         string     `json:"rejectionReason,omitempty"`
	BookingID               *string    `json:"bookingId,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

const dateLayout = "2006-01-02"

type SubmitRequest struct {
	JobID                   string `json:"jobId" validate:"required,uuid"`
	CoverLetter             string `json:"coverLetter" validate:"required"`
	ProposedBudget          string `json:"proposedBudget" validate:"required"`
	EstimatedCompletionTime string `json:"estimatedCompletionTime" validate:"max=500"`
	AvailabilityStartDate   string `json:"availabilityStartDate"`
	CompletionDate          string `json:"completionDate"`
}

// Validate collects every violation rather than stopping at the first.
func (r *SubmitRequest) Validate() ([]api.FieldError, decimal.Decimal) {
	fields := api.Validate(r)

	if strings.TrimSpace(r.CoverLetter) == "" && r.CoverLetter != "" {
		fields = append(fields, api.FieldError{Field: "coverLetter", Message: "is required"})
	}

	budget := decimal.Zero
	if r.ProposedBudget != "" {
		b, err := decimal.NewFromString(r.ProposedBudget)
		switch {
		case err != nil:
			fields = append(fields, api.FieldError{Field: "proposedBudget", Message: "must be a number"})
		case b.LessThanOrEqual(decimal.Zero):
			fields = append(fields, api.FieldError{Field: "proposedBudget", Message: "must be greater than 0"})
		default:
			budget = b
		}
	}

	for _, d := range []struct{ name, value string }{
		{"availabilityStartDate", r.AvailabilityStartDate},
		{"completionDate", r.CompletionDate},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d.value); err != nil {
			fields = append(fields, api.FieldError{Field: d.name, Message: "must be a date (YYYY-MM-DD)"})
		}
	}

	return fields, budget
}
