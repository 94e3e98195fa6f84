package booking

import "time"

type Booking struct {
	ID                     string     `json:"id"`
	ApplicationID          string     `json:"applicationId"`
	JobID                  string     `json:"jobId"`
	ClientID               string     `json:"clientId"`
	WorkerID               string     `json:"workerId"`
	Status                 Status     `json:"status"`
	StartDate              time.Time  `json:"startDate"`
	ExpectedCompletionDate time.Time  `json:"expectedCompletionDate"`
	ActualCompletionDate   *time.Time `json:"actualCompletionDate,omitempty"`
	FinalBudget            string     `json:"finalBudget"`
	Notes                  string     `json:"notes,omitempty"`
	CompletedViaOverride   bool       `json:"completedViaOverride,omitempty"`
	CancellationReason     string     `json:"cancellationReason,omitempty"`
	DisputeReason          string     `json:"disputeReason,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}
