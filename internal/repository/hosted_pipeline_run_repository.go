package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// hostedPipelineRunRepository implements PipelineRunRepository over the
// hosted data service.
type hostedPipelineRunRepository struct {
	client hosted.DataClient
}

// NewHostedPipelineRunRepository creates a pipeline run repository backed by
// the hosted data service.
func NewHostedPipelineRunRepository(client hosted.DataClient) PipelineRunRepository {
	return &hostedPipelineRunRepository{client: client}
}

func (r *hostedPipelineRunRepository) ListByPipeline(ctx context.Context, pipelineID string, limit int) ([]*domain.PipelineRun, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	var runs []*domain.PipelineRun
	err := r.client.From(PipelineRunsCollection).
		Select("*").
		Eq("pipeline_id", pipelineID).
		Order("started_at", false).
		Limit(limit).
		Get(ctx, &runs)
	if err != nil {
		return nil, err
	}
	return runs, nil
}
