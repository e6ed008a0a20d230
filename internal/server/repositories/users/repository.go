// Package users is the credential store: it persists users keyed by a
// unique username. Postgres and MongoDB implementations are provided.
package users

import (
	"context"
	"time"

	"github.com/totymark/totymark/internal/server/models"
)

// Repository is the credential store contract.
//
// Create fails with common.ErrDuplicateUsername when the username is taken;
// uniqueness is enforced by the backing store, not by a prior lookup.
// GetUserByLogin, SetActive and TouchLastSeen return common.ErrorNotFound
// for unknown usernames.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	SetActive(ctx context.Context, login string, active bool) error
	TouchLastSeen(ctx context.Context, login string, at time.Time) error
}
