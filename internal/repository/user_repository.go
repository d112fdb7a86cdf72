package repository

import (
	"context"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// UserRepository is the read access contract for the users collection (the
// profile rows mirrored from the hosted auth service). Identity itself is
// owned by the auth service; these rows only carry display attributes.
type UserRepository interface {
	// GetByID returns one user profile or a not-found error.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// List returns user profiles for the team page, oldest first.
	List(ctx context.Context, limit int) ([]*domain.User, error)
}
