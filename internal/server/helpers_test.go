package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/accounts"
	"stockroom/internal/auth"
	"stockroom/internal/cache"
	"stockroom/internal/core"
	"stockroom/internal/inventory"
)

type testEnv struct {
	srv      *Server
	items    *inventory.Service
	accounts *accounts.Service
	tokens   *auth.TokenManager
}

func newTestEnv(t *testing.T, cfg *Config) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokenManager([]byte("test-secret"), time.Minute, time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		items:    inventory.NewService(inventory.NewMemoryStore(), cache.NewLocalCache(0)),
		accounts: accounts.NewService(accounts.NewMemoryStore(), bcrypt.MinCost),
		tokens:   tokens,
	}
	env.srv = New(env.items, env.accounts, env.tokens, cfg)
	return env
}

// register creates a user with the given role and returns an access token for it.
func (e *testEnv) register(t *testing.T, username string, role core.Role) string {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), accounts.RegisterInput{
		Username: username,
		Password: "secret123",
		Role:     string(role),
	})
	require.NoError(t, err)
	pair, err := e.tokens.IssuePair(user)
	require.NoError(t, err)
	return pair.Access
}

func (e *testEnv) createItem(t *testing.T, sku string, quantity int, category string) *core.Item {
	t.Helper()
	price := core.MustMoney("25.00")
	item, err := e.items.Create(context.Background(), inventory.ItemInput{
		ProductName: "Widget " + sku,
		SKU:         sku,
		Quantity:    &quantity,
		Price:       &price,
		Category:    category,
	})
	require.NoError(t, err)
	return item
}

// do sends a request through the full middleware stack.
func (e *testEnv) do(method, target, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func errorType(rec *httptest.ResponseRecorder) string {
	return gjson.Get(rec.Body.String(), "error.type").String()
}

func errorMessage(rec *httptest.ResponseRecorder) string {
	return gjson.Get(rec.Body.String(), "error.message").String()
}

func errorField(rec *httptest.ResponseRecorder, field string) string {
	return gjson.Get(rec.Body.String(), "error.fields."+field).String()
}
