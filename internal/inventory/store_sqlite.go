package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"stockroom/internal/core"
)

const itemColumns = "id, product_name, sku, quantity, price, category, image_url"

// SQLiteStore stores items in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the items table and indexes if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_name TEXT NOT NULL,
			sku TEXT NOT NULL UNIQUE,
			quantity INTEGER NOT NULL,
			price TEXT NOT NULL,
			category TEXT NOT NULL,
			image_url TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create items table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)"); err != nil {
		return nil, fmt.Errorf("failed to create items category index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Create inserts a new item.
func (s *SQLiteStore) Create(ctx context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (product_name, sku, quantity, price, category, image_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ProductName, item.SKU, item.Quantity, item.Price.String(), item.Category, item.ImageURL)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("insert item %s: %w", item.SKU, ErrDuplicateSKU)
		}
		return fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted item id: %w", err)
	}
	item.ID = id
	return nil
}

// Get returns an item by id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*core.Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	item, err := scanSQLiteItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

// List returns matching items ordered by id.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]*core.Item, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.QuantityBelow > 0 {
		where = append(where, "quantity < ?")
		args = append(args, filter.QuantityBelow)
	}

	query := "SELECT " + itemColumns + " FROM items"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*core.Item, 0)
	for rows.Next() {
		item, err := scanSQLiteItem(rows)
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
func (s *SQLiteStore) Update(ctx context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET product_name = ?, sku = ?, quantity = ?, price = ?, category = ?, image_url = ?
		WHERE id = ?
	`, item.ProductName, item.SKU, item.Quantity, item.Price.String(), item.Category, item.ImageURL, item.ID)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("update item %s: %w", item.SKU, ErrDuplicateSKU)
		}
		return fmt.Errorf("update item: %w", err)
	}
	return requireAffected(result)
}

// Delete removes an item by id.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(result)
}

// DeleteAll removes every item.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM items")
	if err != nil {
		return 0, fmt.Errorf("delete all items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read delete rows affected: %w", err)
	}
	return n, nil
}

// Close is a no-op; DB lifecycle is managed by storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteItem(row rowScanner) (*core.Item, error) {
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

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
