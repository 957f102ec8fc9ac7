package state

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NOTIFY channel carrying client_state change announcements.
const pgChannel = "client_state"

// pgNotification is the LISTEN/NOTIFY payload. Only the key travels; the
// receiving side re-reads the row for the value.
type pgNotification struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
}

// Postgres is a Store shared by every client context pointed at the same
// database. Cross-context change delivery rides on LISTEN/NOTIFY.
type Postgres struct {
	db       *sql.DB
	listener *pq.Listener
	origin   string
	log      *zap.Logger

	mu     sync.Mutex
	subs   map[int]func(Change)
	nextID int

	done chan struct{}
}

// OpenPostgres connects, applies pending migrations, and starts the
// notification listener.
func OpenPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	p := &Postgres{
		db:     db,
		origin: uuid.NewString(),
		log:    log,
		subs:   make(map[int]func(Change)),
		done:   make(chan struct{}),
	}

	p.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("state listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := p.listener.Listen(pgChannel); err != nil {
		_ = p.listener.Close()
		_ = db.Close()
		return nil, fmt.Errorf("listen on %s: %w", pgChannel, err)
	}

	go p.dispatch()

	return p, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (p *Postgres) Get(key string) (string, bool, error) {
	var value string
	err := p.db.QueryRow(`SELECT value FROM client_state WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) Set(key, value string) error {
	const upsert = `
INSERT INTO client_state (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW()
`
	if _, err := p.db.Exec(upsert, key, value); err != nil {
		return err
	}

	p.announce(key)
	p.fanOut(Change{Key: key, Value: value, Present: true})
	return nil
}

func (p *Postgres) Delete(key string) error {
	if _, err := p.db.Exec(`DELETE FROM client_state WHERE key = $1`, key); err != nil {
		return err
	}

	p.announce(key)
	p.fanOut(Change{Key: key, Present: false})
	return nil
}

func (p *Postgres) Subscribe(fn func(Change)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Postgres) Close() error {
	close(p.done)
	err := p.listener.Close()
	if cerr := p.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// announce tells the other contexts. Best effort: a missed notification
// delays re-derivation until the next read, it does not lose data.
func (p *Postgres) announce(key string) {
	payload, err := json.Marshal(pgNotification{Origin: p.origin, Key: key})
	if err != nil {
		return
	}
	if _, err := p.db.Exec(`SELECT pg_notify($1, $2)`, pgChannel, string(payload)); err != nil {
		p.log.Warn("notify state change", zap.String("key", key), zap.Error(err))
	}
}

func (p *Postgres) fanOut(c Change) {
	p.mu.Lock()
	fns := make([]func(Change), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (p *Postgres) dispatch() {
	for {
		select {
		case <-p.done:
			return
		case n, ok := <-p.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Reconnect wake-up; nothing to deliver.
				continue
			}

			var note pgNotification
			if err := json.Unmarshal([]byte(n.Extra), &note); err != nil {
				p.log.Warn("drop malformed state notification", zap.Error(err))
				continue
			}
			if note.Origin == p.origin {
				// Own write, already fanned out synchronously.
				continue
			}

			value, present, err := p.Get(note.Key)
			if err != nil {
				p.log.Warn("re-read after notification", zap.String("key", note.Key), zap.Error(err))
				continue
			}
			p.fanOut(Change{Key: note.Key, Value: value, Present: present})
		}
	}
}
