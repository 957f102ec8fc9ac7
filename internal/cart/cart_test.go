package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id int64, price int64, qty int) Line {
	return NewLine(id, "product", decimal.NewFromInt(price), qty)
}

func assertInvariants(t *testing.T, s State) {
	t.Helper()
	for _, l := range s {
		assert.True(t, l.Quantity >= 1, "line %d has quantity %d", l.ProductID, l.Quantity)
		want := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		assert.True(t, l.LineTotal.Equal(want),
			"line %d total %s, want %s", l.ProductID, l.LineTotal, want)
	}
}

func TestApply_InvariantsHoldAcrossActionSequence(t *testing.T) {
	s := State{}
	actions := []Action{
		Add{Line: line(1, 1000, 1)},
		Add{Line: line(2, 500, 2)},
		Increase{ProductID: 1},
		Increase{ProductID: 1},
		Decrease{ProductID: 2},
		Decrease{ProductID: 2}, // already at 1, must stay at 1
		Remove{ProductID: 99},  // absent, no-op
		Increase{ProductID: 99},
		Add{Line: line(3, 250, 4)},
		Remove{ProductID: 2},
	}

	for _, a := range actions {
		s = Apply(s, a)
		assertInvariants(t, s)
	}

	require.Len(t, s, 2)
	assert.Equal(t, int64(1), s[0].ProductID)
	assert.Equal(t, 3, s[0].Quantity)
	assert.True(t, s[0].LineTotal.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, int64(3), s[1].ProductID)
}

func TestApply_DecreaseFloorsAtOne(t *testing.T) {
	s := State{line(1, 1000, 1)}

	next := Apply(s, Decrease{ProductID: 1})

	require.Len(t, next, 1, "quantity-1 line must not be removed")
	assert.Equal(t, 1, next[0].Quantity)
	assert.True(t, next[0].LineTotal.Equal(decimal.NewFromInt(1000)))
}

func TestApply_AddAlwaysAppends(t *testing.T) {
	s := State{line(1, 1000, 1)}

	// Adding the same product appends a second line; merging only happens
	// through Increase/Decrease.
	next := Apply(s, Add{Line: line(1, 1000, 1)})

	require.Len(t, next, 2)
	assert.Equal(t, next[0].ProductID, next[1].ProductID)
}

func TestApply_AddNormalizesMalformedLine(t *testing.T) {
	// A hand-built line bypassing NewLine must not break the invariants.
	raw := Line{ProductID: 1, Name: "product", UnitPrice: decimal.NewFromInt(1000)}

	next := Apply(State{}, Add{Line: raw})

	require.Len(t, next, 1)
	assert.Equal(t, 1, next[0].Quantity)
	assert.True(t, next[0].LineTotal.Equal(decimal.NewFromInt(1000)))
	assertInvariants(t, next)
}

func TestNewLine_FloorsQuantityAtOne(t *testing.T) {
	l := NewLine(1, "product", decimal.NewFromInt(1000), 0)

	assert.Equal(t, 1, l.Quantity)
	assert.True(t, l.LineTotal.Equal(decimal.NewFromInt(1000)))
}

func TestApply_ClearEmptiesCart(t *testing.T) {
	s := State{line(1, 1000, 2), line(2, 500, 1)}

	next := Apply(s, Clear{})

	assert.Empty(t, next)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := State{line(1, 1000, 2)}

	_ = Apply(s, Increase{ProductID: 1})

	assert.Equal(t, 2, s[0].Quantity, "Apply must not mutate its input")
}
