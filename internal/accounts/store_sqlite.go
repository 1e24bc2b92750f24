package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"stockroom/internal/core"
)

const userColumns = "id, username, password_hash, is_staff, is_superuser, date_joined"

// SQLiteStore stores users in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the users table if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_staff INTEGER NOT NULL DEFAULT 0,
			is_superuser INTEGER NOT NULL DEFAULT 0,
			date_joined INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Create inserts a new user.
func (s *SQLiteStore) Create(ctx context.Context, user *core.User) error {
	if err := validateForCreate(user); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, is_staff, is_superuser, date_joined)
		VALUES (?, ?, ?, ?, ?)
	`, user.Username, user.PasswordHash, user.IsStaff, user.IsSuperuser, user.DateJoined.UTC().Unix())
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return fmt.Errorf("insert user %s: %w", user.Username, ErrDuplicateUsername)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID returns a user by id.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*core.User, error) {
	return s.get(ctx, "id = ?", id)
}

// GetByUsername returns a user by username.
func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.get(ctx, "username = ?", username)
}

func (s *SQLiteStore) get(ctx context.Context, where string, arg interface{}) (*core.User, error) {
	var (
		user   core.User
		joined int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsStaff, &user.IsSuperuser, &joined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.DateJoined = time.Unix(joined, 0).UTC()
	return &user, nil
}

// Close is a no-op; DB lifecycle is managed by storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}
