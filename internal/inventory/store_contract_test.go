package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core"
)

func newTestItem(sku string, quantity int, category string) *core.Item {
	return &core.Item{
		ProductName: "Widget " + sku,
		SKU:         sku,
		Quantity:    quantity,
		Price:       core.MustMoney("19.99"),
		Category:    category,
		ImageURL:    "https://picsum.photos/seed/" + sku + "/400/200",
	}
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns increasing ids", func(t *testing.T) {
		store := newStore(t)
		first := newTestItem("SKU001", 5, "Toys")
		second := newTestItem("SKU002", 50, "Home")

		require.NoError(t, store.Create(ctx, first))
		require.NoError(t, store.Create(ctx, second))

		assert.Positive(t, first.ID)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("get round trip", func(t *testing.T) {
		store := newStore(t)
		item := newTestItem("SKU010", 7, "Sports")
		item.Price = core.MustMoney("120.5")
		require.NoError(t, store.Create(ctx, item))

		got, err := store.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, "Widget SKU010", got.ProductName)
		assert.Equal(t, "SKU010", got.SKU)
		assert.Equal(t, 7, got.Quantity)
		assert.Equal(t, "120.50", got.Price.String())
		assert.Equal(t, "Sports", got.Category)
		assert.Equal(t, item.ImageURL, got.ImageURL)
	})

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, 424242)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate sku on create", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, newTestItem("SKU001", 1, "Toys")))
		err := store.Create(ctx, newTestItem("SKU001", 2, "Home"))
		assert.ErrorIs(t, err, ErrDuplicateSKU)
	})

	t.Run("list orders by id and filters", func(t *testing.T) {
		store := newStore(t)
		for i, spec := range []struct {
			qty      int
			category string
		}{{12, "Toys"}, {3, "Home"}, {9, "Toys"}, {40, "Home"}} {
			require.NoError(t, store.Create(ctx, newTestItem(fmt.Sprintf("SKU%03d", i+1), spec.qty, spec.category)))
		}

		all, err := store.List(ctx, ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i-1].ID, all[i].ID)
		}

		toys, err := store.List(ctx, ListFilter{Category: "Toys"})
		require.NoError(t, err)
		assert.Equal(t, []string{"SKU001", "SKU003"}, skus(toys))

		low, err := store.List(ctx, ListFilter{QuantityBelow: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"SKU002", "SKU003"}, skus(low))

		lowToys, err := store.List(ctx, ListFilter{Category: "Toys", QuantityBelow: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"SKU003"}, skus(lowToys))

		none, err := store.List(ctx, ListFilter{Category: "Garden"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("update", func(t *testing.T) {
		store := newStore(t)
		item := newTestItem("SKU001", 5, "Toys")
		require.NoError(t, store.Create(ctx, item))

		item.Quantity = 99
		item.SKU = "SKU001-B"
		item.Price = core.MustMoney("0.5")
		require.NoError(t, store.Update(ctx, item))

		got, err := store.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 99, got.Quantity)
		assert.Equal(t, "SKU001-B", got.SKU)
		assert.Equal(t, "0.50", got.Price.String())

		// The old SKU is free again.
		require.NoError(t, store.Create(ctx, newTestItem("SKU001", 1, "Toys")))
	})

	t.Run("update with unchanged values", func(t *testing.T) {
		store := newStore(t)
		item := newTestItem("SKU001", 5, "Toys")
		require.NoError(t, store.Create(ctx, item))
		assert.NoError(t, store.Update(ctx, item))
	})

	t.Run("update missing", func(t *testing.T) {
		store := newStore(t)
		item := newTestItem("SKU404", 1, "Toys")
		item.ID = 404
		assert.ErrorIs(t, store.Update(ctx, item), ErrNotFound)
	})

	t.Run("update to duplicate sku", func(t *testing.T) {
		store := newStore(t)
		a := newTestItem("SKU001", 1, "Toys")
		b := newTestItem("SKU002", 1, "Toys")
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, b))

		b.SKU = "SKU001"
		assert.ErrorIs(t, store.Update(ctx, b), ErrDuplicateSKU)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		item := newTestItem("SKU001", 1, "Toys")
		require.NoError(t, store.Create(ctx, item))

		require.NoError(t, store.Delete(ctx, item.ID))
		_, err := store.Get(ctx, item.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, item.ID), ErrNotFound)
	})

	t.Run("delete all does not reuse ids", func(t *testing.T) {
		store := newStore(t)
		first := newTestItem("SKU001", 1, "Toys")
		require.NoError(t, store.Create(ctx, first))
		require.NoError(t, store.Create(ctx, newTestItem("SKU002", 1, "Toys")))

		n, err := store.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		all, err := store.List(ctx, ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)

		again := newTestItem("SKU001", 1, "Toys")
		require.NoError(t, store.Create(ctx, again))
		assert.Greater(t, again.ID, first.ID)
	})

	t.Run("rejects nil and empty sku", func(t *testing.T) {
		store := newStore(t)
		assert.Error(t, store.Create(ctx, nil))
		err := store.Create(ctx, newTestItem("  ", 1, "Toys"))
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrDuplicateSKU))
	})
}

func skus(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.SKU
	}
	return out
}
