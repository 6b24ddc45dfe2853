package store

import (
	"context"
	"sync"

	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/ports"
)

// MemoryUserStore keeps accounts in a map; used when no database path is configured
type MemoryUserStore struct {
	users map[string]core.User
	mu    sync.RWMutex
}

// NewMemoryUserStore creates an empty in-memory user store
func NewMemoryUserStore() ports.UserStore {
	return &MemoryUserStore{users: make(map[string]core.User)}
}

func (s *MemoryUserStore) CreateUser(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return core.ErrUserExists
	}
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryUserStore) GetUser(ctx context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return &user, nil
}
