package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/api"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/credential"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/state"
)

type fakeGateway struct {
	mu      sync.Mutex
	queries []url.Values
}

func (f *fakeGateway) Do(ctx context.Context, method, path string, body any, query url.Values, attachCredential bool) (api.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return api.Envelope{IsSuccess: true, Data: json.RawMessage(
		`{"product_info":[],"currentPage":1,"totalPages":1}`)}, nil
}

func (f *fakeGateway) lastQuery(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.queries)
	return f.queries[len(f.queries)-1]
}

// newTestShell builds a shell reading commands from script instead of stdin.
func newTestShell(t *testing.T, gw api.Doer, script string) *shell {
	t.Helper()
	kv := state.NewMemory()
	creds := credential.NewStore(kv)
	sessions := session.NewManager(creds)
	t.Cleanup(sessions.Close)
	carts := cart.NewMachine(kv)
	require.NoError(t, carts.Hydrate())

	return &shell{
		catalogs: catalog.NewEngine(gw),
		carts:    carts,
		orders:   checkout.NewWorkflow(carts, gw, zap.NewNop()),
		accounts: account.NewService(gw, sessions, forms.NewValidator()),
		sessions: sessions,
		in:       bufio.NewScanner(strings.NewReader(script)),
	}
}

func TestShell_SortGoesBackToFirstPage(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestShell(t, gw, "page 7\nsort price\nquit\n")

	s.run(context.Background())

	last := gw.lastQuery(t)
	assert.Equal(t, "price", last.Get("sort"))
	assert.Empty(t, last.Get("page"), "changing the sort must leave the old page behind")
}

func TestShell_DirectionGoesBackToFirstPage(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestShell(t, gw, "page 7\ndir desc\nquit\n")

	s.run(context.Background())

	last := gw.lastQuery(t)
	assert.Equal(t, "desc", last.Get("direction"))
	assert.Empty(t, last.Get("page"))
}
