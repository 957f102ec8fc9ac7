// Package state provides the durable client-side key/value store shared by
// the credential store and the cart machine. A store holds a handful of
// well-known keys and notifies subscribers when any of them change, so other
// execution contexts can re-derive their state without polling.
package state

// Well-known keys. These mirror the names the web client used in
// localStorage, so a file store written by one client version stays readable
// by the next.
const (
	KeyCredential = "Authorization"
	KeyCart       = "cart"
)

// Change describes a single key mutation. Present is false when the key was
// deleted. Subscribers that need more than the new value should re-read the
// store.
type Change struct {
	Key     string
	Value   string
	Present bool
}

// Store is a durable key/value store with change notification.
//
// Get must reflect the latest Set in the same context (read-after-write).
// Changes made by other contexts arrive eventually through Subscribe.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error

	// Subscribe registers fn for every subsequent change. The returned
	// function removes the subscription. fn may be called from another
	// goroutine and must not block.
	Subscribe(fn func(Change)) (unsubscribe func())

	Close() error
}
