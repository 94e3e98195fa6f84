package job

import (
	"encoding/json"
	"time"

	"marketplace/internal/milestone"
)

type Job struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"clientId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Budget      string          `json:"budget,omitempty"`
	Status      string          `json:"status"` // open | closed
	DefaultPlan json.RawMessage `json:"defaultPlan,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// PlanConfig is stored as JSONB in `jobs.default_plan`. Versioned so the
// schema can evolve without breaking existing records.
type PlanConfig struct {
	Version int                  `json:"version"`
	Items   []milestone.PlanItem `json:"items"`
}

func ParsePlan(raw json.RawMessage) (PlanConfig, error) {
	var cfg PlanConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return PlanConfig{}, milestone.ValidationError{Code: "VALIDATION_FAILED", Message: "invalid plan json"}
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if err := milestone.ValidatePlan(cfg.Items); err != nil {
		return PlanConfig{}, err
	}

	return cfg, nil
}
