package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// DashboardRepository is the data access contract for the dashboards
// collection.
type DashboardRepository interface {
	// ListByUser returns the user's dashboards, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Dashboard, error)

	// Create inserts a dashboard and returns the created row.
	Create(ctx context.Context, dashboard *domain.Dashboard) (*domain.Dashboard, error)
}
