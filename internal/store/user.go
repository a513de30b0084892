package store

import (
	"context"
	"fmt"

	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/models"
)

// UserStore persists users who have signed in.
type UserStore struct {
	Base
}

// NewUserStore creates a new UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

var _ domain.UserStore = (*UserStore)(nil)

// UpsertUser returns the user with email, creating it on first sign-in and
// refreshing the display name otherwise.
func (s *UserStore) UpsertUser(ctx context.Context, email, name string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u models.User

	err := s.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id::text, email, name, created_at`,
		email, name,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	u.CreatedAt = u.CreatedAt.UTC()

	return &u, nil
}
