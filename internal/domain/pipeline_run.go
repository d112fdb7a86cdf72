package domain

import "time"

// RunStatus is the terminal or in-flight state of a pipeline run, as recorded
// by the execution backend. This application only reads these rows.
type RunStatus string

const (
	// RunRunning is an in-flight run.
	RunRunning RunStatus = "running"
	// RunCompleted is a run that finished successfully.
	RunCompleted RunStatus = "completed"
	// RunFailed is a run that terminated with an error.
	RunFailed RunStatus = "failed"
)

// PipelineRun is one historical execution record of a pipeline.
type PipelineRun struct {
	ID            string     `json:"id"`
	PipelineID    string     `json:"pipeline_id"`
	Status        RunStatus  `json:"status"`
	RowsProcessed int64      `json:"rows_processed"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// Duration returns the wall-clock duration of a finished run, or zero while
// the run is still in flight.
func (r *PipelineRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
