package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// hostedPipelineRepository implements PipelineRepository over the hosted data
// service.
type hostedPipelineRepository struct {
	client hosted.DataClient
}

// NewHostedPipelineRepository creates a pipeline repository backed by the
// hosted data service.
func NewHostedPipelineRepository(client hosted.DataClient) PipelineRepository {
	return &hostedPipelineRepository{client: client}
}

func (r *hostedPipelineRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Pipeline, error) {
	var pipelines []*domain.Pipeline
	err := r.client.From(PipelinesCollection).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Limit(DefaultListLimit).
		Get(ctx, &pipelines)
	if err != nil {
		return nil, err
	}
	return pipelines, nil
}

func (r *hostedPipelineRepository) GetByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	var pipelines []*domain.Pipeline
	err := r.client.From(PipelinesCollection).
		Select("*").
		Eq("id", id).
		Limit(1).
		Get(ctx, &pipelines)
	if err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return nil, domain.NewNotFoundError("PIPELINE_NOT_FOUND", "Pipeline not found")
	}
	return pipelines[0], nil
}

func (r *hostedPipelineRepository) Create(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	if pipeline.Status == "" {
		pipeline.Status = domain.PipelineDraft
	}
	var created domain.Pipeline
	if err := r.client.From(PipelinesCollection).Insert(ctx, pipeline, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *hostedPipelineRepository) AttachDataSource(ctx context.Context, pipelineID, dataSourceID string) (*domain.PipelineDataSource, error) {
	link := &domain.PipelineDataSource{
		PipelineID:   pipelineID,
		DataSourceID: dataSourceID,
	}
	var created domain.PipelineDataSource
	if err := r.client.From(PipelineDataSourcesCollection).Insert(ctx, link, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *hostedPipelineRepository) ListDataSourceIDs(ctx context.Context, pipelineID string) ([]string, error) {
	var links []*domain.PipelineDataSource
	err := r.client.From(PipelineDataSourcesCollection).
		Select("*").
		Eq("pipeline_id", pipelineID).
		Limit(DefaultListLimit).
		Get(ctx, &links)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.DataSourceID)
	}
	return ids, nil
}
