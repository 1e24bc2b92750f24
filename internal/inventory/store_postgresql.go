package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockroom/internal/core"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const pgItemColumns = "id, product_name, sku, quantity, price::text, category, image_url"

// PostgreSQLStore stores items in PostgreSQL.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the items table and indexes if needed.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			id BIGSERIAL PRIMARY KEY,
			product_name VARCHAR(255) NOT NULL,
			sku VARCHAR(100) NOT NULL UNIQUE,
			quantity INTEGER NOT NULL,
			price NUMERIC(10, 2) NOT NULL,
			category VARCHAR(100) NOT NULL,
			image_url VARCHAR(200) NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create items table: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)"); err != nil {
		return nil, fmt.Errorf("failed to create items category index: %w", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// Create inserts a new item.
func (s *PostgreSQLStore) Create(ctx context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO items (product_name, sku, quantity, price, category, image_url)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING id
	`, item.ProductName, item.SKU, item.Quantity, item.Price.String(), item.Category, item.ImageURL).Scan(&item.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("insert item %s: %w", item.SKU, ErrDuplicateSKU)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Get returns an item by id.
func (s *PostgreSQLStore) Get(ctx context.Context, id int64) (*core.Item, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+pgItemColumns+" FROM items WHERE id = $1", id)
	item, err := scanPgItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

// List returns matching items ordered by id.
func (s *PostgreSQLStore) List(ctx context.Context, filter ListFilter) ([]*core.Item, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.QuantityBelow > 0 {
		args = append(args, filter.QuantityBelow)
		where = append(where, "quantity < $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + pgItemColumns + " FROM items"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*core.Item, 0)
	for rows.Next() {
		item, err := scanPgItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

// Update replaces a stored item.
func (s *PostgreSQLStore) Update(ctx context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	cmd, err := s.pool.Exec(ctx, `
		UPDATE items
		SET product_name = $1, sku = $2, quantity = $3, price = $4::numeric, category = $5, image_url = $6
		WHERE id = $7
	`, item.ProductName, item.SKU, item.Quantity, item.Price.String(), item.Category, item.ImageURL, item.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("update item %s: %w", item.SKU, ErrDuplicateSKU)
		}
		return fmt.Errorf("update item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an item by id.
func (s *PostgreSQLStore) Delete(ctx context.Context, id int64) error {
	cmd, err := s.pool.Exec(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every item.
func (s *PostgreSQLStore) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := s.pool.Exec(ctx, "DELETE FROM items")
	if err != nil {
		return 0, fmt.Errorf("delete all items: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// Close is a no-op; pool lifecycle is managed by storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}

func scanPgItem(row pgx.Row) (*core.Item, error) {
	var item core.Item
	var price string
	if err := row.Scan(&item.ID, &item.ProductName, &item.SKU, &item.Quantity, &price, &item.Category, &item.ImageURL); err != nil {
		return nil, err
	}
	money, err := core.NewMoney(price)
	if err != nil {
		return nil, err
	}
	item.Price = money
	return &item, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
