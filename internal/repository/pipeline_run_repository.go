package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// PipelineRunRepository is the read-only access contract for the
// pipeline_runs collection. Runs are written by the execution backend, never
// by this application.
type PipelineRunRepository interface {
	// ListByPipeline returns the most recent runs of a pipeline, newest
	// first.
	ListByPipeline(ctx context.Context, pipelineID string, limit int) ([]*domain.PipelineRun, error)
}
