package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// hostedUserRepository implements UserRepository over the hosted data
// service.
type hostedUserRepository struct {
	client hosted.DataClient
}

// NewHostedUserRepository creates a user repository backed by the hosted data
// service.
func NewHostedUserRepository(client hosted.DataClient) UserRepository {
	return &hostedUserRepository{client: client}
}

func (r *hostedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var users []*domain.User
	err := r.client.From(UsersCollection).
		Select("*").
		Eq("id", id).
		Limit(1).
		Get(ctx, &users)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domain.NewNotFoundError("USER_NOT_FOUND", "User not found")
	}
	return users[0], nil
}

func (r *hostedUserRepository) List(ctx context.Context, limit int) ([]*domain.User, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	var users []*domain.User
	err := r.client.From(UsersCollection).
		Select("*").
		Order("created_at", true).
		Limit(limit).
		Get(ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}
