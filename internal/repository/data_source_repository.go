package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// DataSourceRepository is the data access contract for the data_sources
// collection.
type DataSourceRepository interface {
	// ListByUser returns the user's data sources, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.DataSource, error)

	// GetByID returns one data source or a not-found error.
	GetByID(ctx context.Context, id string) (*domain.DataSource, error)

	// Create inserts a data source and returns the created row as stored by
	// the hosted service.
	Create(ctx context.Context, source *domain.DataSource) (*domain.DataSource, error)
}
