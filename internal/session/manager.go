// Package session derives the authenticated/unauthenticated state from the
// credential store and exposes login/logout transitions.
package session

import (
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/credential"
)

// Manager is a two-state machine: Authenticated or Unauthenticated. It never
// fails; it only observes the credential store and flips accordingly.
//
// Login does not write a credential. The credential arrives through the
// request gateway when a login response carries one; Login just acknowledges
// that locally. Logout clears the store so every other context drops to
// unauthenticated too.
type Manager struct {
	creds *credential.Store

	mu            sync.Mutex
	authenticated bool
	subs          map[int]func(bool)
	nextID        int

	unsubscribe func()
}

// NewManager derives the initial state synchronously from the store and
// starts reacting to external credential changes.
func NewManager(creds *credential.Store) *Manager {
	m := &Manager{
		creds: creds,
		subs:  make(map[int]func(bool)),
	}
	m.authenticated = creds.Get() != ""
	m.unsubscribe = creds.Subscribe(func(token string) {
		m.transition(token != "")
	})
	return m
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

func (m *Manager) Login() {
	m.transition(true)
}

func (m *Manager) Logout() {
	// Clearing the store also triggers the subscription; transition is
	// idempotent so the double call collapses to one notification.
	_ = m.creds.Clear()
	m.transition(false)
}

// Subscribe delivers the new value on every actual transition.
func (m *Manager) Subscribe(fn func(authenticated bool)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close detaches from the credential store.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Manager) transition(authenticated bool) {
	m.mu.Lock()
	if m.authenticated == authenticated {
		m.mu.Unlock()
		return
	}
	m.authenticated = authenticated
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(authenticated)
	}
}
