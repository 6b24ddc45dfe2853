package ports

import (
	"context"
	"time"

	"github.com/layer-3/authflow/core"
)

// Store interface for token invalidation
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}

// UserStore persists registered accounts
type UserStore interface {
	// CreateUser returns core.ErrUserExists if the username is taken
	CreateUser(ctx context.Context, user *core.User) error
	// GetUser returns core.ErrUserNotFound if no such username exists
	GetUser(ctx context.Context, username string) (*core.User, error)
}
