package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core"
)

func newTestUser(username string, role core.Role) *core.User {
	u := &core.User{
		Username:     username,
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplacehold",
		DateJoined:   time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
	u.ApplyRole(role)
	return u
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		store := newStore(t)
		user := newTestUser("alice", core.RoleAdmin)
		require.NoError(t, store.Create(ctx, user))
		assert.Positive(t, user.ID)

		byID, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
		assert.Equal(t, user.PasswordHash, byID.PasswordHash)
		assert.True(t, byID.IsStaff)
		assert.True(t, byID.IsSuperuser)
		assert.True(t, user.DateJoined.Equal(byID.DateJoined))

		byName, err := store.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
	})

	t.Run("staff flags", func(t *testing.T) {
		store := newStore(t)
		user := newTestUser("bob", core.RoleStaff)
		require.NoError(t, store.Create(ctx, user))

		got, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, got.IsStaff)
		assert.False(t, got.IsSuperuser)
	})

	t.Run("duplicate username", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, newTestUser("carol", core.RoleStaff)))
		err := store.Create(ctx, newTestUser("carol", core.RoleAdmin))
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("usernames are case sensitive", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, newTestUser("dave", core.RoleStaff)))
		require.NoError(t, store.Create(ctx, newTestUser("Dave", core.RoleStaff)))
	})

	t.Run("missing user", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects incomplete users", func(t *testing.T) {
		store := newStore(t)
		assert.Error(t, store.Create(ctx, nil))
		assert.Error(t, store.Create(ctx, &core.User{Username: " ", PasswordHash: "x"}))
		assert.Error(t, store.Create(ctx, &core.User{Username: "erin"}))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}
