package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockroom/internal/core"
)

// PostgreSQLStore stores users in PostgreSQL.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the users table if needed.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(150) NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_staff BOOLEAN NOT NULL DEFAULT FALSE,
			is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
			date_joined TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// Create inserts a new user.
func (s *PostgreSQLStore) Create(ctx context.Context, user *core.User) error {
	if err := validateForCreate(user); err != nil {
		return err
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, is_staff, is_superuser, date_joined)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, user.Username, user.PasswordHash, user.IsStaff, user.IsSuperuser, user.DateJoined.UTC()).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert user %s: %w", user.Username, ErrDuplicateUsername)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID returns a user by id.
func (s *PostgreSQLStore) GetByID(ctx context.Context, id int64) (*core.User, error) {
	return s.get(ctx, "id = $1", id)
}

// GetByUsername returns a user by username.
func (s *PostgreSQLStore) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.get(ctx, "username = $1", username)
}

func (s *PostgreSQLStore) get(ctx context.Context, where string, arg interface{}) (*core.User, error) {
	var user core.User
	err := s.pool.QueryRow(ctx, "SELECT id, username, password_hash, is_staff, is_superuser, date_joined FROM users WHERE "+where, arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsStaff, &user.IsSuperuser, &user.DateJoined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.DateJoined = user.DateJoined.UTC()
	return &user, nil
}

// Close is a no-op; pool lifecycle is managed by storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
