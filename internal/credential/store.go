// Package credential owns the single bearer credential the client carries.
// Everything that needs the credential (session manager, request gateway)
// shares one injected Store; nothing keeps a second copy.
package credential

import (
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/state"
)

// Store reads and writes the bearer credential in the durable state store.
// An empty string means no credential is held.
type Store struct {
	kv state.Store
}

func NewStore(kv state.Store) *Store {
	return &Store{kv: kv}
}

// Get returns the stored credential, or "" when none is stored or the store
// is unreadable. Callers treat a missing credential as unauthenticated; a
// read failure degrades to the same thing.
func (s *Store) Get() string {
	v, ok, err := s.kv.Get(state.KeyCredential)
	if err != nil || !ok {
		return ""
	}
	return v
}

func (s *Store) Set(token string) error {
	return s.kv.Set(state.KeyCredential, token)
}

func (s *Store) Clear() error {
	return s.kv.Delete(state.KeyCredential)
}

// Subscribe delivers the new credential value on every change, "" on clear.
func (s *Store) Subscribe(fn func(token string)) (unsubscribe func()) {
	return s.kv.Subscribe(func(c state.Change) {
		if c.Key != state.KeyCredential {
			return
		}
		if !c.Present {
			fn("")
			return
		}
		fn(c.Value)
	})
}
