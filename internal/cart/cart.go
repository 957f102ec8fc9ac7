// Package cart holds the shopping cart: an ordered list of lines mutated
// only through a closed set of actions applied by a pure reducer.
package cart

import "github.com/shopspring/decimal"

// Line is one cart entry. LineTotal always equals UnitPrice * Quantity; the
// reducer recomputes it on every quantity change.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// State is the cart content in insertion order.
type State []Line

// NewLine builds a line with its total computed. Quantity floors at 1, the
// same floor Decrease enforces.
func NewLine(productID int64, name string, unitPrice decimal.Decimal, quantity int) Line {
	if quantity < 1 {
		quantity = 1
	}
	return Line{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Action is the closed set of cart transitions.
type Action interface{ isAction() }

// Hydrate replaces the state wholesale with the durable snapshot. Applied
// once at session start, before any other action.
type Hydrate struct{ Lines []Line }

// Add appends a line. It appends even when the product is already present;
// merging happens only through Increase/Decrease. That asymmetry is the
// established behavior and callers rely on it.
type Add struct{ Line Line }

// Remove drops the matching line. No-op when absent.
type Remove struct{ ProductID int64 }

// Clear resets the cart to empty.
type Clear struct{}

// Increase bumps the quantity by one and recomputes the total. No-op when
// absent.
type Increase struct{ ProductID int64 }

// Decrease lowers the quantity by one, flooring at 1. A quantity-1 line is
// left unchanged, never removed. No-op when absent.
type Decrease struct{ ProductID int64 }

func (Hydrate) isAction()  {}
func (Add) isAction()      {}
func (Remove) isAction()   {}
func (Clear) isAction()    {}
func (Increase) isAction() {}
func (Decrease) isAction() {}

// Apply is the pure transition function. It never mutates s; every branch
// returns a fresh slice.
func Apply(s State, a Action) State {
	switch act := a.(type) {
	case Hydrate:
		return append(State{}, act.Lines...)

	case Add:
		// Rebuild the line so a caller-constructed Line with a zero
		// quantity or a stale total cannot enter the state.
		line := NewLine(act.Line.ProductID, act.Line.Name, act.Line.UnitPrice, act.Line.Quantity)
		next := append(State{}, s...)
		return append(next, line)

	case Remove:
		next := make(State, 0, len(s))
		for _, line := range s {
			if line.ProductID == act.ProductID {
				continue
			}
			next = append(next, line)
		}
		return next

	case Clear:
		return State{}

	case Increase:
		next := append(State{}, s...)
		for i, line := range next {
			if line.ProductID == act.ProductID {
				next[i] = NewLine(line.ProductID, line.Name, line.UnitPrice, line.Quantity+1)
			}
		}
		return next

	case Decrease:
		next := append(State{}, s...)
		for i, line := range next {
			if line.ProductID == act.ProductID && line.Quantity > 1 {
				next[i] = NewLine(line.ProductID, line.Name, line.UnitPrice, line.Quantity-1)
			}
		}
		return next

	default:
		return s
	}
}
