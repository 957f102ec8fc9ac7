package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/api"
)

// Engine holds the catalog query and the latest fetched page. Every query
// mutation issues a fetch; when fetches race, only the most recently issued
// one may update the page, so fast navigation never lands on a stale page.
type Engine struct {
	gw api.Doer

	mu      sync.Mutex
	query   Query
	page    Page
	loading bool
	err     error
	seq     uint64
}

func NewEngine(gw api.Doer) *Engine {
	return &Engine{gw: gw}
}

// SetPage mutates the page field and re-fetches.
func (e *Engine) SetPage(ctx context.Context, page int) {
	e.mu.Lock()
	e.query.Page = page
	e.mu.Unlock()
	e.Refresh(ctx)
}

// SetSort mutates the sort field and re-fetches.
func (e *Engine) SetSort(ctx context.Context, sort string) {
	e.mu.Lock()
	e.query.Sort = sort
	e.mu.Unlock()
	e.Refresh(ctx)
}

// SetDirection mutates the direction field and re-fetches.
func (e *Engine) SetDirection(ctx context.Context, direction string) {
	e.mu.Lock()
	e.query.Direction = direction
	e.mu.Unlock()
	e.Refresh(ctx)
}

// Refresh fetches the catalog for the current query. The call returns once
// the fetch settles; a response superseded by a later-issued fetch is
// discarded without touching the page or the error.
func (e *Engine) Refresh(ctx context.Context) {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	query := e.query
	e.loading = true
	e.mu.Unlock()

	env, err := e.gw.Do(ctx, http.MethodGet, "/products", nil, query.Values(), false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.seq {
		// A later fetch was issued while this one was in flight; its
		// result wins regardless of arrival order.
		return
	}
	e.loading = false

	if err != nil {
		// Keep the previous page: stale-but-valid beats a blank screen.
		e.err = err
		return
	}

	var page Page
	if err := json.Unmarshal(env.Data, &page); err != nil {
		e.err = fmt.Errorf("decode catalog page: %w", err)
		return
	}

	e.err = nil
	e.page = page
}

// Current returns the latest successfully fetched page.
func (e *Engine) Current() Page {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

func (e *Engine) Query() Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Detail fetches one product.
func (e *Engine) Detail(ctx context.Context, productID int64) (ProductDetail, error) {
	env, err := e.gw.Do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, nil, false)
	if err != nil {
		return ProductDetail{}, err
	}

	var detail ProductDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		return ProductDetail{}, fmt.Errorf("decode product detail: %w", err)
	}
	return detail, nil
}
