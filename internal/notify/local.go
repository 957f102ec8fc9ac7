package notify

import "sync"

// Local is an in-process Broadcaster. Two stores wired to the same Local
// instance behave like two tabs of the same browser profile.
type Local struct {
	mu     sync.Mutex
	subs   map[int]func(Message)
	nextID int
}

func NewLocal() *Local {
	return &Local{subs: make(map[int]func(Message))}
}

func (l *Local) Publish(m Message) error {
	l.mu.Lock()
	fns := make([]func(Message), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(m)
	}
	return nil
}

func (l *Local) Subscribe(fn func(Message)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

func (l *Local) Close() error { return nil }
