package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// PipelineRepository is the data access contract for the pipelines collection
// and its pipeline_data_sources attachments.
type PipelineRepository interface {
	// ListByUser returns the user's pipelines, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Pipeline, error)

	// GetByID returns one pipeline or a not-found error.
	GetByID(ctx context.Context, id string) (*domain.Pipeline, error)

	// Create inserts a pipeline and returns the created row.
	Create(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error)

	// AttachDataSource links an existing data source to a pipeline.
	AttachDataSource(ctx context.Context, pipelineID, dataSourceID string) (*domain.PipelineDataSource, error)

	// ListDataSourceIDs returns the ids of the data sources attached to a
	// pipeline.
	ListDataSourceIDs(ctx context.Context, pipelineID string) ([]string, error)
}
