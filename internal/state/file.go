package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/notify"
)

// File is a Store persisted as a single JSON document. Writes go through a
// temp file and rename so a crash never leaves a half-written document.
//
// When a notify.Broadcaster is attached, every local change is published and
// changes published by other contexts cause a reload plus local fan-out, so
// separate processes sharing the file see each other's writes.
type File struct {
	path   string
	origin string
	bc     notify.Broadcaster

	mu     sync.Mutex
	data   map[string]string
	subs   map[int]func(Change)
	nextID int

	unsubBC func()
}

// NewFile opens (or creates) the store at path. bc may be nil for a
// single-process store.
func NewFile(path string, bc notify.Broadcaster) (*File, error) {
	f := &File{
		path:   path,
		origin: uuid.NewString(),
		bc:     bc,
		subs:   make(map[int]func(Change)),
	}

	if err := f.load(); err != nil {
		return nil, err
	}

	if bc != nil {
		f.unsubBC = bc.Subscribe(f.onRemote)
	}

	return f, nil
}

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.data = make(map[string]string)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode state file %s: %w", f.path, err)
	}
	f.data = data
	return nil
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	f.data[key] = value
	err := f.flush()
	fns := f.snapshotSubs()
	f.mu.Unlock()
	if err != nil {
		return err
	}

	f.announce(fns, Change{Key: key, Value: value, Present: true})
	return nil
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	delete(f.data, key)
	err := f.flush()
	fns := f.snapshotSubs()
	f.mu.Unlock()
	if err != nil {
		return err
	}

	f.announce(fns, Change{Key: key, Present: false})
	return nil
}

func (f *File) Subscribe(fn func(Change)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *File) Close() error {
	if f.unsubBC != nil {
		f.unsubBC()
	}
	return nil
}

// flush must be called with mu held.
func (f *File) flush() error {
	raw, err := json.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// snapshotSubs must be called with mu held.
func (f *File) snapshotSubs() []func(Change) {
	fns := make([]func(Change), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	return fns
}

func (f *File) announce(fns []func(Change), c Change) {
	for _, fn := range fns {
		fn(c)
	}
	if f.bc != nil {
		// Delivery is best effort. A missed notification means another
		// context keeps stale derived state until its next read, which is
		// the same failure mode browsers have for storage events.
		_ = f.bc.Publish(notify.Message{
			Origin:  f.origin,
			Key:     c.Key,
			Value:   c.Value,
			Present: c.Present,
		})
	}
}

// onRemote handles a change made by another context: reload the document and
// fan out locally. Messages from this store instance are ignored.
func (f *File) onRemote(m notify.Message) {
	if m.Origin == f.origin {
		return
	}

	f.mu.Lock()
	if err := f.load(); err != nil {
		// Keep the cached document; the next local write overwrites it.
		f.mu.Unlock()
		return
	}
	fns := f.snapshotSubs()
	f.mu.Unlock()

	for _, fn := range fns {
		fn(Change{Key: m.Key, Value: m.Value, Present: m.Present})
	}
}
