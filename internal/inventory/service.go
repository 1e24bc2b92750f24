package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stockroom/internal/cache"
	"stockroom/internal/core"
	"stockroom/internal/observability"
	"stockroom/internal/validation"
)

// DefaultLowStockThreshold is the quantity below which an item counts as low on stock.
const DefaultLowStockThreshold = 10

// Stock levels reported for low-stock items.
const (
	StockLevelCritical = "critical"
	StockLevelVeryLow  = "very_low"
	StockLevelLow      = "low"
)

// LowStockItem is an item below the low-stock threshold together with its severity.
type LowStockItem struct {
	*core.Item
	StockLevel string `json:"stock_level"`
}

// StockLevel classifies a quantity that is already below the threshold.
func StockLevel(quantity int) string {
	switch {
	case quantity <= 3:
		return StockLevelCritical
	case quantity <= 5:
		return StockLevelVeryLow
	default:
		return StockLevelLow
	}
}

// Service implements the item use cases on top of a Store, keeping the
// optional listing cache coherent with writes.
type Service struct {
	store     Store
	cache     cache.ItemCache
	validator *validation.Validator
}

// NewService creates a Service. A nil cache disables caching.
func NewService(store Store, itemCache cache.ItemCache) *Service {
	if itemCache == nil {
		itemCache = cache.Noop{}
	}
	return &Service{
		store:     store,
		cache:     itemCache,
		validator: validation.New(),
	}
}

// List returns items matching filter ordered by id. Unfiltered listings are
// served from the cache when possible.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*core.Item, error) {
	fill := filter.IsZero()
	var gen uint64
	if fill {
		items, ok, err := s.cache.Items(ctx)
		if err != nil {
			slog.Warn("item cache read failed", "error", err)
		}
		observability.RecordCacheLookup(ok)
		if ok {
			return items, nil
		}
		// Taken before the store read so a write finishing in between
		// invalidates this fill.
		if gen, err = s.cache.Generation(ctx); err != nil {
			slog.Warn("item cache generation read failed", "error", err)
			fill = false
		}
	}

	items, err := s.store.List(ctx, filter)
	observability.RecordItemOperation("list", err)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	if fill {
		if err := s.cache.SetItems(ctx, gen, items); err != nil {
			slog.Warn("item cache write failed", "error", err)
		}
	}
	return items, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (*core.Item, error) {
	item, err := s.store.Get(ctx, id)
	observability.RecordItemOperation("get", err)
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

// Create validates in and stores a new item.
func (s *Service) Create(ctx context.Context, in ItemInput) (*core.Item, error) {
	in = in.normalized()
	if err := in.validate(s.validator); err != nil {
		return nil, err
	}

	item := in.toItem(0)
	err := s.store.Create(ctx, item)
	observability.RecordItemOperation("create", err)
	if err != nil {
		return nil, translate(err)
	}
	s.invalidate(ctx)
	slog.Info("item created", "id", item.ID, "sku", item.SKU)
	return item, nil
}

// Replace overwrites every writable field of an existing item.
func (s *Service) Replace(ctx context.Context, id int64, in ItemInput) (*core.Item, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.save(ctx, id, in.normalized())
}

// Patch updates only the fields present in p.
func (s *Service) Patch(ctx context.Context, id int64, p ItemPatch) (*core.Item, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, id, p.applyTo(inputFromItem(existing)).normalized())
}

func (s *Service) save(ctx context.Context, id int64, in ItemInput) (*core.Item, error) {
	if err := in.validate(s.validator); err != nil {
		return nil, err
	}

	item := in.toItem(id)
	err := s.store.Update(ctx, item)
	observability.RecordItemOperation("update", err)
	if err != nil {
		return nil, translate(err)
	}
	s.invalidate(ctx)
	slog.Info("item updated", "id", item.ID, "sku", item.SKU)
	return item, nil
}

// Delete removes one item.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	observability.RecordItemOperation("delete", err)
	if err != nil {
		return translate(err)
	}
	s.invalidate(ctx)
	slog.Info("item deleted", "id", id)
	return nil
}

// LowStock lists items whose quantity is below threshold, ordered by id.
// A non-positive threshold selects DefaultLowStockThreshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	items, err := s.List(ctx, ListFilter{QuantityBelow: threshold})
	if err != nil {
		return nil, err
	}
	out := make([]LowStockItem, len(items))
	for i, item := range items {
		out[i] = LowStockItem{Item: item, StockLevel: StockLevel(item.Quantity)}
	}
	return out, nil
}

// Reset removes every item; used by the seeder.
func (s *Service) Reset(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	observability.RecordItemOperation("delete_all", err)
	if err != nil {
		return 0, fmt.Errorf("reset items: %w", err)
	}
	s.invalidate(ctx)
	return n, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("item cache invalidation failed", "error", err)
	}
}

// translate maps store sentinels onto API errors.
func translate(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return core.NewNotFoundError("Not found.")
	case errors.Is(err, ErrDuplicateSKU):
		return core.NewConflictError("sku", "item with this sku already exists.", err)
	default:
		return err
	}
}
