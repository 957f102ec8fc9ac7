// Package checkout turns the cart into an order through a single sequential
// path: summarize, confirm, submit.
package checkout

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/api"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/cart"
)

var (
	// ErrEmptyCart is returned by Begin when there is nothing to order.
	// The caller sends the user back to the catalog without a network call.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotAwaitingConfirmation is returned when Confirm or Cancel is
	// called outside the confirmation step.
	ErrNotAwaitingConfirmation = errors.New("no order awaiting confirmation")
)

// Phase is the workflow position.
type Phase int

const (
	Idle Phase = iota
	AwaitingConfirmation
)

// Summary is what the user confirms.
type Summary struct {
	TotalAmount decimal.Decimal
	TotalItems  int
}

type orderRequest struct {
	ProductInfo []orderLine `json:"product_info"`
}

type orderLine struct {
	ProductID int64 `json:"product_id"`
	Amount    int   `json:"amount"`
}

// Workflow submits the cart as an order. The order request is a snapshot of
// the cart at confirmation time: mutations between Begin and Confirm end up
// in the order, mutations after Confirm do not.
type Workflow struct {
	carts *cart.Machine
	gw    api.Doer
	log   *zap.Logger

	mu    sync.Mutex
	phase Phase
}

func NewWorkflow(carts *cart.Machine, gw api.Doer, log *zap.Logger) *Workflow {
	return &Workflow{carts: carts, gw: gw, log: log}
}

func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Begin computes the totals and enters the confirmation step. An empty cart
// fails fast with ErrEmptyCart and stays Idle.
func (w *Workflow) Begin() (Summary, error) {
	summary := Summary{
		TotalAmount: w.carts.TotalAmount(),
		TotalItems:  w.carts.TotalItems(),
	}
	if summary.TotalAmount.IsZero() {
		return Summary{}, ErrEmptyCart
	}

	w.mu.Lock()
	w.phase = AwaitingConfirmation
	w.mu.Unlock()
	return summary, nil
}

// Cancel leaves the confirmation step with no side effects.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != AwaitingConfirmation {
		return ErrNotAwaitingConfirmation
	}
	w.phase = Idle
	return nil
}

// Confirm snapshots the current cart, submits the order, and returns the
// server's message on success.
//
// The cart is cleared and the confirmation step closed whether or not the
// submission succeeds. Clearing on failure loses the user's cart; this
// mirrors the established behavior and is flagged as an open question in
// DESIGN.md rather than silently changed.
func (w *Workflow) Confirm(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.phase != AwaitingConfirmation {
		w.mu.Unlock()
		return "", ErrNotAwaitingConfirmation
	}
	w.mu.Unlock()

	// Snapshot now, not at Begin: if the cart changed during
	// confirmation, the later state wins.
	lines := w.carts.Lines()
	req := orderRequest{ProductInfo: make([]orderLine, 0, len(lines))}
	for _, line := range lines {
		req.ProductInfo = append(req.ProductInfo, orderLine{
			ProductID: line.ProductID,
			Amount:    line.Quantity,
		})
	}

	env, submitErr := w.gw.Do(ctx, http.MethodPost, "/orders", req, nil, true)

	if err := w.carts.Dispatch(cart.Clear{}); err != nil {
		w.log.Warn("clear cart after order submission", zap.Error(err))
	}
	w.mu.Lock()
	w.phase = Idle
	w.mu.Unlock()

	if submitErr != nil {
		return "", submitErr
	}
	return env.Message, nil
}
