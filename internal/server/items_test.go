package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const itemBody = `{"product_name":"Cordless Drill","sku":"DRL-001","quantity":12,"price":"89.90","category":"Tools","image_url":"https://example.com/drill.png"}`

func TestItemsCRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.register(t, "boss", "admin")
	staff := env.register(t, "clerk", "staff")

	rec := env.do(http.MethodPost, "/api/items/", admin, itemBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := rec.Body.String()
	id := gjson.Get(created, "id").Int()
	require.Positive(t, id)
	assert.Equal(t, "Cordless Drill", gjson.Get(created, "product_name").String())
	assert.Equal(t, "89.90", gjson.Get(created, "price").String())
	assert.Equal(t, int64(12), gjson.Get(created, "quantity").Int())

	itemPath := fmt.Sprintf("/api/items/%d/", id)

	t.Run("staff can read", func(t *testing.T) {
		rec := env.do(http.MethodGet, itemPath, staff, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "DRL-001", gjson.Get(rec.Body.String(), "sku").String())

		list := env.do(http.MethodGet, "/api/items/", staff, "")
		require.Equal(t, http.StatusOK, list.Code)
		assert.Equal(t, int64(1), gjson.Get(list.Body.String(), "#").Int())
	})

	t.Run("replace", func(t *testing.T) {
		body := `{"product_name":"Hammer Drill","sku":"DRL-001","quantity":7,"price":129,"category":"Tools"}`
		rec := env.do(http.MethodPut, itemPath, admin, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Hammer Drill", gjson.Get(rec.Body.String(), "product_name").String())
		assert.Equal(t, "129.00", gjson.Get(rec.Body.String(), "price").String())
		assert.Empty(t, gjson.Get(rec.Body.String(), "image_url").String())
	})

	t.Run("patch", func(t *testing.T) {
		rec := env.do(http.MethodPatch, itemPath, admin, `{"quantity":3}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(3), gjson.Get(rec.Body.String(), "quantity").Int())
		assert.Equal(t, "Hammer Drill", gjson.Get(rec.Body.String(), "product_name").String())
	})

	t.Run("patch validation", func(t *testing.T) {
		rec := env.do(http.MethodPatch, itemPath, admin, `{"quantity":-1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, gjson.Get(rec.Body.String(), "error.fields.quantity").Exists())
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(http.MethodDelete, itemPath, admin, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())

		rec = env.do(http.MethodGet, itemPath, staff, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Not found.", errorMessage(rec))
	})
}

func TestItemsPermissions(t *testing.T) {
	env := newTestEnv(t, nil)
	staff := env.register(t, "clerk", "staff")
	item := env.createItem(t, "SKU-1", 20, "Tools")
	itemPath := fmt.Sprintf("/api/items/%d/", item.ID)

	writes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/items/", itemBody},
		{http.MethodPut, itemPath, itemBody},
		{http.MethodPatch, itemPath, `{"quantity":1}`},
		{http.MethodDelete, itemPath, ""},
	}

	for _, w := range writes {
		t.Run("staff "+w.method, func(t *testing.T) {
			rec := env.do(w.method, w.path, staff, w.body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "permission_error", errorType(rec))
			assert.Equal(t, msgAdminOnly, errorMessage(rec))
		})
		t.Run("anonymous "+w.method, func(t *testing.T) {
			rec := env.do(w.method, w.path, "", w.body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "authentication_error", errorType(rec))
		})
	}

	t.Run("anonymous read", func(t *testing.T) {
		for _, p := range []string{"/api/items/", itemPath, "/api/items/low-stock/"} {
			rec := env.do(http.MethodGet, p, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, p)
		}
	})

	t.Run("item unchanged", func(t *testing.T) {
		rec := env.do(http.MethodGet, itemPath, staff, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(20), gjson.Get(rec.Body.String(), "quantity").Int())
	})
}

func TestCreateItemValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.register(t, "boss", "admin")
	env.createItem(t, "DUP-1", 5, "Tools")

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/items/", admin, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		for _, field := range []string{"product_name", "sku", "quantity", "price", "category"} {
			assert.Equal(t, "This field is required.", errorField(rec, field), field)
		}
	})

	t.Run("duplicate sku", func(t *testing.T) {
		body := `{"product_name":"Other","sku":"DUP-1","quantity":1,"price":"1.00","category":"Tools"}`
		rec := env.do(http.MethodPost, "/api/items/", admin, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "conflict_error", errorType(rec))
		assert.True(t, gjson.Get(rec.Body.String(), "error.fields.sku").Exists())
	})

	t.Run("price with extreme exponent", func(t *testing.T) {
		body := `{"product_name":"Huge","sku":"BIG-1","quantity":1,"price":"1e20000000","category":"Tools"}`
		start := time.Now()
		rec := env.do(http.MethodPost, "/api/items/", admin, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request_error", errorType(rec))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("price with too many digits", func(t *testing.T) {
		body := `{"product_name":"Huge","sku":"BIG-2","quantity":1,"price":"1e11","category":"Tools"}`
		rec := env.do(http.MethodPost, "/api/items/", admin, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Ensure that there are no more than 10 digits in total.", errorField(rec, "price"))
	})

	t.Run("non-json content type", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/items/", admin, itemBody, "Content-Type", "text/plain")
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, "invalid_request_error", errorType(rec))
	})
}

func TestItemNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	staff := env.register(t, "clerk", "staff")
	admin := env.register(t, "boss", "admin")

	for _, p := range []string{"/api/items/999/", "/api/items/abc/", "/api/items/0/"} {
		rec := env.do(http.MethodGet, p, staff, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, p)
		assert.Equal(t, "not_found_error", errorType(rec), p)
	}

	rec := env.do(http.MethodDelete, "/api/items/999/", admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListItemsCategoryAndETag(t *testing.T) {
	env := newTestEnv(t, nil)
	staff := env.register(t, "clerk", "staff")
	env.createItem(t, "T-1", 10, "Tools")
	env.createItem(t, "G-1", 10, "Garden")
	env.createItem(t, "T-2", 10, "Tools")

	rec := env.do(http.MethodGet, "/api/items/?category=Tools", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	skus := gjson.Get(rec.Body.String(), "#.sku").Array()
	require.Len(t, skus, 2)
	assert.Equal(t, "T-1", skus[0].String())
	assert.Equal(t, "T-2", skus[1].String())

	rec = env.do(http.MethodGet, "/api/items/", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = env.do(http.MethodGet, "/api/items/", staff, "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/items/", staff, "", "If-None-Match", `W/`+etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	env.createItem(t, "G-2", 10, "Garden")
	rec = env.do(http.MethodGet, "/api/items/", staff, "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestEtagMatches(t *testing.T) {
	assert.False(t, etagMatches("", `"a"`))
	assert.True(t, etagMatches(`"a"`, `"a"`))
	assert.True(t, etagMatches(`"b", W/"a"`, `"a"`))
	assert.True(t, etagMatches("*", `"a"`))
	assert.False(t, etagMatches(`"b"`, `"a"`))
}

func TestLowStockItems(t *testing.T) {
	env := newTestEnv(t, nil)
	staff := env.register(t, "clerk", "staff")
	env.createItem(t, "A", 2, "Tools")
	env.createItem(t, "B", 5, "Tools")
	env.createItem(t, "C", 9, "Tools")
	env.createItem(t, "D", 10, "Tools")
	env.createItem(t, "E", 40, "Tools")

	rec := env.do(http.MethodGet, "/api/items/low-stock/", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, int64(3), gjson.Get(body, "#").Int())
	assert.Equal(t, []string{"critical", "very_low", "low"}, stringsOf(gjson.Get(body, "#.stock_level")))
	assert.Equal(t, []string{"A", "B", "C"}, stringsOf(gjson.Get(body, "#.sku")))

	rec = env.do(http.MethodGet, "/api/items/low-stock/?threshold=50", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), gjson.Get(rec.Body.String(), "#").Int())

	for _, bad := range []string{"abc", "0", "-3"} {
		rec = env.do(http.MethodGet, "/api/items/low-stock/?threshold="+bad, staff, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Equal(t, "A valid positive integer is required.", errorField(rec, "threshold"), bad)
	}
}

func stringsOf(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}
