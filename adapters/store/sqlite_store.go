package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore keeps invalidated token IDs in a SQLite table so they
// survive restarts
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates the revocation table on db if needed.
// db may be shared with a SQLiteUserStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	return newSQLiteStore(db, time.Now)
}

func newSQLiteStore(db *sql.DB, now func() time.Time) (*SQLiteStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			token_id    TEXT PRIMARY KEY,
			expires_at  INTEGER NOT NULL
		);`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init 'revoked_tokens' table schema: %w", err)
	}
	return &SQLiteStore{db: db, now: now}, nil
}

// InvalidateToken records tokenID until expiry has elapsed.
// Lapsed rows are purged on every write and the later expiry wins.
func (s *SQLiteStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	now := s.now()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM revoked_tokens
		WHERE expires_at < ?;`,
		now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("couldn't purge revoked_tokens: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_id, expires_at)
		VALUES (?, ?)
		ON CONFLICT(token_id) DO UPDATE
		SET expires_at = MAX(expires_at, excluded.expires_at);`,
		tokenID,
		now.Add(expiry).UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// IsTokenInvalidated reports whether tokenID has a live revocation record
func (s *SQLiteStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM revoked_tokens
		WHERE token_id=? AND expires_at >= ?;`,
		tokenID,
		s.now().UnixMilli(),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	return found > 0, nil
}
