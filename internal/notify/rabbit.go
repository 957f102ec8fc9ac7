package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Exchange carrying state-change messages. Fanout, so every connected client
// context receives every change.
const stateExchange = "storefront.state"

// Rabbit is a Broadcaster over an AMQP fanout exchange. Each Rabbit binds an
// exclusive auto-delete queue, so messages are delivered to every live
// context and nothing piles up for dead ones.
type Rabbit struct {
	conn    *amqp.Connection
	ownConn bool
	ch      *amqp.Channel
	log     *zap.Logger

	mu     sync.Mutex
	subs   map[int]func(Message)
	nextID int

	cancel context.CancelFunc
}

func NewRabbit(url string, log *zap.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	r, err := NewRabbitWithConn(conn, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	r.ownConn = true
	return r, nil
}

// NewRabbitWithConn wires a Broadcaster onto an existing connection. The
// caller keeps ownership of the connection.
func NewRabbitWithConn(conn *amqp.Connection, log *zap.Logger) (*Rabbit, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the exchange so publish never fails due to missing infra.
	if err := ch.ExchangeDeclare(stateExchange, "fanout", false, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", stateExchange, err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", stateExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",   // consumer tag
		true, // autoAck: a missed notification only delays re-derivation
		true, // exclusive
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Rabbit{
		conn:   conn,
		ch:     ch,
		log:    log,
		subs:   make(map[int]func(Message)),
		cancel: cancel,
	}

	go r.dispatch(ctx, msgs)

	return r, nil
}

func (r *Rabbit) dispatch(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				r.log.Warn("state notification channel closed")
				return
			}
			var m Message
			if err := json.Unmarshal(d.Body, &m); err != nil {
				r.log.Warn("drop malformed state notification", zap.Error(err))
				continue
			}

			r.mu.Lock()
			fns := make([]func(Message), 0, len(r.subs))
			for _, fn := range r.subs {
				fns = append(fns, fn)
			}
			r.mu.Unlock()

			for _, fn := range fns {
				fn(m)
			}
		}
	}
}

func (r *Rabbit) Publish(m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal state notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.ch.PublishWithContext(ctx, stateExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (r *Rabbit) Subscribe(fn func(Message)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Rabbit) Close() error {
	r.cancel()
	err := r.ch.Close()
	if r.ownConn {
		if cerr := r.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
