package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_Invalidation(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := newMemoryStore(clock.Now)

	ok, err := s.IsTokenInvalidated(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.InvalidateToken(ctx, "r1", time.Minute))
	ok, err = s.IsTokenInvalidated(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	ok, err = s.IsTokenInvalidated(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	// lapsed records are dropped on the next write
	require.NoError(t, s.InvalidateToken(ctx, "r2", time.Minute))
	assert.NotContains(t, s.invalidatedTokens, "r1")
}

func TestMemoryStore_KeepsLaterExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := newMemoryStore(clock.Now)

	require.NoError(t, s.InvalidateToken(ctx, "r1", time.Hour))
	require.NoError(t, s.InvalidateToken(ctx, "r1", time.Minute))

	clock.Advance(10 * time.Minute)
	ok, err := s.IsTokenInvalidated(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserStores(t *testing.T) {
	sqliteStore, err := NewSQLiteUserStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	stores := map[string]ports.UserStore{
		"memory": NewMemoryUserStore(),
		"sqlite": sqliteStore,
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Unix(1_700_000_000, 0)
			user := &core.User{
				ID:           "u1",
				Username:     "alice",
				PasswordHash: []byte("hash"),
				CreatedAt:    created,
			}

			require.NoError(t, s.CreateUser(ctx, user))
			assert.ErrorIs(t, s.CreateUser(ctx, &core.User{
				ID:           "u2",
				Username:     "alice",
				PasswordHash: []byte("other"),
				CreatedAt:    created,
			}), core.ErrUserExists)

			got, err := s.GetUser(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "u1", got.ID)
			assert.Equal(t, []byte("hash"), got.PasswordHash)
			assert.True(t, got.CreatedAt.Equal(created))

			_, err = s.GetUser(ctx, "bob")
			assert.ErrorIs(t, err, core.ErrUserNotFound)
		})
	}
}
