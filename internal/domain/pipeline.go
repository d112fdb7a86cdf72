package domain

import (
	"encoding/json"
	"time"
)

// PipelineStatus is the lifecycle state of a pipeline definition.
type PipelineStatus string

const (
	// PipelineDraft is a pipeline that has been created but not activated.
	PipelineDraft PipelineStatus = "draft"
	// PipelineActive is a pipeline whose schedule is enabled.
	PipelineActive PipelineStatus = "active"
	// PipelinePaused is a pipeline whose schedule is suspended.
	PipelinePaused PipelineStatus = "paused"
)

// IsValid checks if the pipeline status is one of the known states.
func (s PipelineStatus) IsValid() bool {
	switch s {
	case PipelineDraft, PipelineActive, PipelinePaused:
		return true
	}
	return false
}

// Pipeline is a user-owned pipeline definition. Steps is an opaque JSON array
// built by the dashboard form; this application stores it verbatim and never
// executes or schema-validates it.
type Pipeline struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      PipelineStatus  `json:"status"`
	Steps       json.RawMessage `json:"steps,omitempty"`
	Schedule    string          `json:"schedule,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the pipeline fields before it is sent to the hosted data
// service.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return NewValidationError("MISSING_NAME", "Pipeline name is required",
			map[string]interface{}{"field": "name"})
	}
	if p.UserID == "" {
		return NewValidationError("MISSING_USER_ID", "Pipeline must belong to a user", nil)
	}
	if p.Status != "" && !p.Status.IsValid() {
		return NewValidationError("INVALID_STATUS", "Unknown pipeline status",
			map[string]interface{}{"field": "status"})
	}
	if len(p.Steps) > 0 && !json.Valid(p.Steps) {
		return NewValidationError("INVALID_STEPS", "Pipeline steps must be valid JSON",
			map[string]interface{}{"field": "steps"})
	}
	return nil
}

// PipelineDataSource links a pipeline to one of the user's data sources.
type PipelineDataSource struct {
	ID           string    `json:"id"`
	PipelineID   string    `json:"pipeline_id"`
	DataSourceID string    `json:"data_source_id"`
	CreatedAt    time.Time `json:"created_at"`
}
