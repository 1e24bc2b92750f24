package accounts

import (
	"context"
	"fmt"
	"sync"

	"stockroom/internal/core"
)

// MemoryStore keeps users in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[int64]*core.User
	byUsername map[string]int64
	nextID     int64
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]*core.User),
		byUsername: make(map[string]int64),
	}
}

// Create inserts a new user.
func (s *MemoryStore) Create(_ context.Context, user *core.User) error {
	if err := validateForCreate(user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return fmt.Errorf("insert user %s: %w", user.Username, ErrDuplicateUsername)
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = cloneUser(user)
	s.byUsername[user.Username] = user.ID
	return nil
}

// GetByID returns a user by id.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

// GetByUsername returns a user by username.
func (s *MemoryStore) GetByUsername(_ context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
