package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/state"
)

// Machine owns the authoritative cart state for a session. The durable
// snapshot is a cache: every transition after hydration overwrites it in
// full, and it is read exactly once, at session start.
type Machine struct {
	kv state.Store

	mu       sync.Mutex
	state    State
	hydrated bool
}

func NewMachine(kv state.Store) *Machine {
	return &Machine{kv: kv, state: State{}}
}

// Hydrate loads the durable snapshot into memory. It runs at most once; a
// second call is a no-op so a redundant startup path cannot wipe the cart.
// Hydration does not write back the snapshot it just read.
func (m *Machine) Hydrate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hydrated {
		return nil
	}

	raw, ok, err := m.kv.Get(state.KeyCart)
	if err != nil {
		return fmt.Errorf("read cart snapshot: %w", err)
	}

	var lines []Line
	if ok {
		if err := json.Unmarshal([]byte(raw), &lines); err != nil {
			return fmt.Errorf("decode cart snapshot: %w", err)
		}
	}

	m.state = Apply(m.state, Hydrate{Lines: lines})
	m.hydrated = true
	return nil
}

// Dispatch applies one action and persists the resulting state. Hydrate
// actions go through Hydrate instead.
func (m *Machine) Dispatch(a Action) error {
	if _, isHydrate := a.(Hydrate); isHydrate {
		return m.Hydrate()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Apply(m.state, a)

	raw, err := json.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := m.kv.Set(state.KeyCart, string(raw)); err != nil {
		return fmt.Errorf("persist cart snapshot: %w", err)
	}
	return nil
}

// Lines returns a copy of the current state.
func (m *Machine) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Line(nil), m.state...)
}

// TotalAmount is the sum of line totals.
func (m *Machine) TotalAmount() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, line := range m.state {
		total = total.Add(line.LineTotal)
	}
	return total
}

// TotalItems is the sum of quantities.
func (m *Machine) TotalItems() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := 0
	for _, line := range m.state {
		items += line.Quantity
	}
	return items
}
