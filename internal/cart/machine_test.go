package cart

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/state"
)

// countingStore wraps a Store and counts writes, so tests can assert that
// hydration never re-persists what it just read.
type countingStore struct {
	state.Store
	mu     sync.Mutex
	writes int
}

func (c *countingStore) Set(key, value string) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Store.Set(key, value)
}

func (c *countingStore) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func snapshotFromStore(t *testing.T, kv state.Store) []Line {
	t.Helper()
	raw, ok, err := kv.Get(state.KeyCart)
	require.NoError(t, err)
	require.True(t, ok, "expected a cart snapshot in the store")
	var lines []Line
	require.NoError(t, json.Unmarshal([]byte(raw), &lines))
	return lines
}

func TestMachine_HydrateIsIdempotentAndDoesNotRepersist(t *testing.T) {
	kv := &countingStore{Store: state.NewMemory()}

	stored := []Line{line(1, 1000, 2)}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, kv.Set(state.KeyCart, string(raw)))
	seeded := kv.writeCount()

	m := NewMachine(kv)
	require.NoError(t, m.Hydrate())

	got := m.Lines()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ProductID)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, seeded, kv.writeCount(), "hydration must not write the snapshot back")

	// A second hydration is a no-op; it cannot wipe the loaded state.
	require.NoError(t, m.Hydrate())
	assert.Len(t, m.Lines(), 1)
	assert.Equal(t, seeded, kv.writeCount())
}

func TestMachine_HydrateTolerantOfMissingSnapshot(t *testing.T) {
	m := NewMachine(state.NewMemory())

	require.NoError(t, m.Hydrate())

	assert.Empty(t, m.Lines())
}

func TestMachine_EveryTransitionPersistsFullSnapshot(t *testing.T) {
	kv := state.NewMemory()
	m := NewMachine(kv)
	require.NoError(t, m.Hydrate())

	require.NoError(t, m.Dispatch(Add{Line: line(1, 1000, 1)}))
	require.NoError(t, m.Dispatch(Add{Line: line(2, 500, 1)}))
	require.NoError(t, m.Dispatch(Increase{ProductID: 2}))

	stored := snapshotFromStore(t, kv)
	require.Len(t, stored, 2)
	assert.Equal(t, 2, stored[1].Quantity)
	assert.True(t, stored[1].LineTotal.Equal(decimal.NewFromInt(1000)))
}

func TestMachine_ClearPersistsEmptiness(t *testing.T) {
	kv := state.NewMemory()
	m := NewMachine(kv)
	require.NoError(t, m.Hydrate())
	require.NoError(t, m.Dispatch(Add{Line: line(1, 1000, 3)}))

	require.NoError(t, m.Dispatch(Clear{}))

	assert.Empty(t, m.Lines())
	assert.Empty(t, snapshotFromStore(t, kv), "durable snapshot must reflect emptiness")
}

func TestMachine_Totals(t *testing.T) {
	m := NewMachine(state.NewMemory())
	require.NoError(t, m.Hydrate())
	require.NoError(t, m.Dispatch(Add{Line: line(1, 1000, 2)}))
	require.NoError(t, m.Dispatch(Add{Line: line(2, 500, 3)}))

	assert.True(t, m.TotalAmount().Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, 5, m.TotalItems())
}

func TestMachine_DispatchHydrateRoutesToHydrate(t *testing.T) {
	kv := &countingStore{Store: state.NewMemory()}
	m := NewMachine(kv)

	require.NoError(t, m.Dispatch(Hydrate{}))

	assert.Zero(t, kv.writeCount())
	assert.Empty(t, m.Lines())
}
