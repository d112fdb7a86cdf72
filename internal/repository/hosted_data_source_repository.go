package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// hostedDataSourceRepository implements DataSourceRepository over the hosted
// data service.
type hostedDataSourceRepository struct {
	client hosted.DataClient
}

// NewHostedDataSourceRepository creates a data source repository backed by
// the hosted data service.
func NewHostedDataSourceRepository(client hosted.DataClient) DataSourceRepository {
	return &hostedDataSourceRepository{client: client}
}

func (r *hostedDataSourceRepository) ListByUser(ctx context.Context, userID string) ([]*domain.DataSource, error) {
	var sources []*domain.DataSource
	err := r.client.From(DataSourcesCollection).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Limit(DefaultListLimit).
		Get(ctx, &sources)
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *hostedDataSourceRepository) GetByID(ctx context.Context, id string) (*domain.DataSource, error) {
	var sources []*domain.DataSource
	err := r.client.From(DataSourcesCollection).
		Select("*").
		Eq("id", id).
		Limit(1).
		Get(ctx, &sources)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, domain.NewNotFoundError("DATA_SOURCE_NOT_FOUND", "Data source not found")
	}
	return sources[0], nil
}

func (r *hostedDataSourceRepository) Create(ctx context.Context, source *domain.DataSource) (*domain.DataSource, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	var created domain.DataSource
	if err := r.client.From(DataSourcesCollection).Insert(ctx, source, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
