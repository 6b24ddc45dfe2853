package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/authflow/ports"
)

// MemoryStore is an in-memory implementation of the Store interface
type MemoryStore struct {
	invalidatedTokens map[string]time.Time
	mu                sync.RWMutex
	now               func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.Store {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		invalidatedTokens: make(map[string]time.Time),
		now:               now,
	}
}

// InvalidateToken marks a token as invalidated until expiry has elapsed
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	expiryTime := now.Add(expiry)
	if stored, exists := s.invalidatedTokens[tokenID]; exists && stored.After(expiryTime) {
		return nil
	}
	s.invalidatedTokens[tokenID] = expiryTime

	return nil
}

// IsTokenInvalidated checks if a token is invalidated
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	// the invalidation record itself has lapsed
	if s.now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}

// sweep drops lapsed records; callers hold the write lock
func (s *MemoryStore) sweep(now time.Time) {
	for id, expiryTime := range s.invalidatedTokens {
		if now.After(expiryTime) {
			delete(s.invalidatedTokens, id)
		}
	}
}
