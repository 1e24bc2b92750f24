package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"stockroom/internal/core"
)

// MemoryStore keeps items in process memory.
// Data survives across requests but not process restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]*core.Item
	bySKU  map[string]int64
	nextID int64
}

// NewMemoryStore creates an empty in-memory item store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[int64]*core.Item),
		bySKU:  make(map[string]int64),
		nextID: 1,
	}
}

// Create stores a new item and assigns its id.
func (s *MemoryStore) Create(_ context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bySKU[item.SKU]; taken {
		return fmt.Errorf("create %s: %w", item.SKU, ErrDuplicateSKU)
	}

	item.ID = s.nextID
	s.nextID++
	s.items[item.ID] = item.Clone()
	s.bySKU[item.SKU] = item.ID
	return nil
}

// Get retrieves one item by id.
func (s *MemoryStore) Get(_ context.Context, id int64) (*core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return item.Clone(), nil
}

// List returns matching items ordered by id.
func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*core.Item, error) {
	s.mu.RLock()
	out := make([]*core.Item, 0, len(s.items))
	for _, item := range s.items {
		if filter.matches(item) {
			out = append(out, item.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update replaces an existing item.
func (s *MemoryStore) Update(_ context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := s.bySKU[item.SKU]; taken && owner != item.ID {
		return fmt.Errorf("update %s: %w", item.SKU, ErrDuplicateSKU)
	}

	delete(s.bySKU, existing.SKU)
	s.items[item.ID] = item.Clone()
	s.bySKU[item.SKU] = item.ID
	return nil
}

// Delete removes one item.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	delete(s.bySKU, item.SKU)
	return nil
}

// DeleteAll removes every item. Ids are not reused afterwards.
func (s *MemoryStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.items))
	s.items = make(map[int64]*core.Item)
	s.bySKU = make(map[string]int64)
	return n, nil
}

// Close releases resources (no-op for memory store).
func (s *MemoryStore) Close() error {
	return nil
}
