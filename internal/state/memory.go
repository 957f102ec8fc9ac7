package state

import "sync"

// Memory is an in-process Store. It backs tests and one-off runs that do not
// need durability.
type Memory struct {
	mu     sync.Mutex
	data   map[string]string
	subs   map[int]func(Change)
	nextID int
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]string),
		subs: make(map[int]func(Change)),
	}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	fns := m.snapshotSubs()
	m.mu.Unlock()

	fanOut(fns, Change{Key: key, Value: value, Present: true})
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	fns := m.snapshotSubs()
	m.mu.Unlock()

	fanOut(fns, Change{Key: key, Present: false})
	return nil
}

func (m *Memory) Subscribe(fn func(Change)) func() {
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

func (m *Memory) Close() error { return nil }

// snapshotSubs must be called with mu held.
func (m *Memory) snapshotSubs() []func(Change) {
	fns := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	return fns
}

func fanOut(fns []func(Change), c Change) {
	for _, fn := range fns {
		fn(c)
	}
}
