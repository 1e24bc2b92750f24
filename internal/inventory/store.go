// Package inventory persists items and implements the item use cases.
package inventory

import (
	"context"
	"errors"
	"strings"

	"stockroom/internal/core"
)

// ErrNotFound indicates a requested item was not found.
var ErrNotFound = errors.New("item not found")

// ErrDuplicateSKU indicates another item already uses the SKU.
var ErrDuplicateSKU = errors.New("item with this sku already exists")

// ListFilter narrows a listing. The zero value matches every item.
type ListFilter struct {
	// Category keeps items whose category matches exactly.
	Category string
	// QuantityBelow, when positive, keeps items whose quantity is strictly lower.
	QuantityBelow int
}

// IsZero reports whether the filter matches every item.
func (f ListFilter) IsZero() bool {
	return f.Category == "" && f.QuantityBelow <= 0
}

func (f ListFilter) matches(item *core.Item) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.QuantityBelow > 0 && item.Quantity >= f.QuantityBelow {
		return false
	}
	return true
}

// Store defines persistence operations for items.
// Listings are ordered by id ascending.
type Store interface {
	// Create inserts item and sets item.ID to the generated identifier.
	Create(ctx context.Context, item *core.Item) error
	Get(ctx context.Context, id int64) (*core.Item, error)
	List(ctx context.Context, filter ListFilter) ([]*core.Item, error)
	// Update replaces every field of the item identified by item.ID.
	Update(ctx context.Context, item *core.Item) error
	Delete(ctx context.Context, id int64) error
	// DeleteAll removes every item and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
	Close() error
}

func validateForWrite(item *core.Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if strings.TrimSpace(item.SKU) == "" {
		return errors.New("item sku is empty")
	}
	return nil
}
