package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// hostedDashboardRepository implements DashboardRepository over the hosted
// data service.
type hostedDashboardRepository struct {
	client hosted.DataClient
}

// NewHostedDashboardRepository creates a dashboard repository backed by the
// hosted data service.
func NewHostedDashboardRepository(client hosted.DataClient) DashboardRepository {
	return &hostedDashboardRepository{client: client}
}

func (r *hostedDashboardRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Dashboard, error) {
	var dashboards []*domain.Dashboard
	err := r.client.From(DashboardsCollection).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Limit(DefaultListLimit).
		Get(ctx, &dashboards)
	if err != nil {
		return nil, err
	}
	return dashboards, nil
}

func (r *hostedDashboardRepository) Create(ctx context.Context, dashboard *domain.Dashboard) (*domain.Dashboard, error) {
	if err := dashboard.Validate(); err != nil {
		return nil, err
	}
	var created domain.Dashboard
	if err := r.client.From(DashboardsCollection).Insert(ctx, dashboard, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
