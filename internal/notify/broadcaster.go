// Package notify carries state-change notifications between execution
// contexts. It is the transport behind the storage-event behavior the web
// client relied on: a context that changes a shared key publishes a message,
// every other context re-reads the key and re-derives its state.
package notify

// Message is a key-change announcement. Origin identifies the publishing
// store instance so it can ignore its own messages when they come back
// around.
type Message struct {
	Origin  string `json:"origin"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// Broadcaster fans key-change messages out to every subscriber, including
// subscribers in other processes when the implementation spans them.
type Broadcaster interface {
	Publish(Message) error

	// Subscribe registers fn for every message, own messages included;
	// filtering by Origin is the subscriber's job. The returned function
	// removes the subscription.
	Subscribe(fn func(Message)) (unsubscribe func())

	Close() error
}
