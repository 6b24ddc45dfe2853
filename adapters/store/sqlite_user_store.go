package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/authflow/core"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteUserStore persists accounts in a SQLite database
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStore opens (and if needed creates) the database at dbPath.
// Use ":memory:" for a throwaway store.
func NewSQLiteUserStore(dbPath string) (*SQLiteUserStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// a second connection to ":memory:" would see a different database
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	return &SQLiteUserStore{db: db}, nil
}

// DB exposes the connection so other stores can share the database file
func (s *SQLiteUserStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteUserStore) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			username    TEXT UNIQUE NOT NULL,
			password    BLOB NOT NULL,
			created_at  INTEGER NOT NULL
		);`,
	)
	if err != nil {
		return fmt.Errorf("failed to init 'users' table schema: %w", err)
	}
	return nil
}

func (s *SQLiteUserStore) CreateUser(ctx context.Context, user *core.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password, created_at)
		VALUES (?, ?, ?, ?);`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt.Unix(),
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return core.ErrUserExists
		}
		return fmt.Errorf("couldn't insert into users: %w", err)
	}
	return nil
}

func (s *SQLiteUserStore) GetUser(ctx context.Context, username string) (*core.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password, created_at
		FROM users
		WHERE username=?;`,
		username,
	)

	var (
		user      core.User
		createdAt int64
	)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't scan user: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0)

	return &user, nil
}
