package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
)

// Message is one envelope headed for the queue. ID is the idempotency key used for
// duplicate suppression; Type picks the subject.
type Message struct {
	Type string
	ID   string
	Body any
}

// Gateway hands single opaque messages to the durable queue. The backend is dialed lazily so
// a missing or unreachable queue surfaces as a health reason instead of a failed start.
type Gateway struct {
	cfg  config.QueueConfig
	dial Dialer

	mu      sync.Mutex
	backend Backend
	ensured bool
}

func NewGateway(cfg config.QueueConfig, dial Dialer) *Gateway {
	if dial == nil {
		dial = DialJetStream
	}
	return &Gateway{cfg: cfg, dial: dial}
}

// Name is the configured queue name.
func (g *Gateway) Name() string {
	return g.cfg.Name
}

func (g *Gateway) Configured() bool {
	return g.cfg.Configured()
}

func (g *Gateway) connect(ctx context.Context) (Backend, error) {
	if !g.cfg.Configured() {
		return nil, &QueueUnavailableError{Reason: ReasonMissingConfig}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.backend != nil {
		return g.backend, nil
	}
	b, err := g.dial(ctx, g.cfg)
	if err != nil {
		return nil, &QueueUnavailableError{Reason: ReasonConnectionFailed, Err: err}
	}
	g.backend = b
	return b, nil
}

// EnsureQueue creates the queue if it does not exist. Safe to call before every send.
func (g *Gateway) EnsureQueue(ctx context.Context) error {
	b, err := g.connect(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	ensured := g.ensured
	g.mu.Unlock()
	if ensured {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	exists, err := b.Exists(ctx)
	if err != nil {
		return g.wrap(ctx, err)
	}
	if !exists {
		if err := b.Create(ctx); err != nil {
			return g.wrap(ctx, err)
		}
	}

	g.mu.Lock()
	g.ensured = true
	g.mu.Unlock()
	return nil
}

// Send encodes msg and appends it to the queue, returning the queue-assigned message id.
func (g *Gateway) Send(ctx context.Context, msg Message) (string, error) {
	encoded, err := Encode(msg.Body)
	if err != nil {
		return "", err
	}
	return g.SendEncoded(ctx, msg.Type, msg.ID, encoded)
}

// SendEncoded appends an already encoded message. The size limit is enforced before any I/O.
func (g *Gateway) SendEncoded(ctx context.Context, typ, msgID, encoded string) (string, error) {
	if err := CheckSize(encoded); err != nil {
		return "", err
	}
	b, err := g.connect(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	subject := fmt.Sprintf("%s.%s.%s", g.cfg.SubjectPrefix, g.cfg.Name, typ)
	id, err := b.Publish(ctx, subject, []byte(encoded), msgID)
	if err != nil {
		return "", g.wrap(ctx, err)
	}

	log.Debug().
		Str("subject", subject).
		Str("msg_id", msgID).
		Str("message_id", id).
		Int("size", len(encoded)).
		Msg("enqueued message")
	return id, nil
}

func (g *Gateway) wrap(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.backend == nil {
		return nil
	}
	err := g.backend.Close()
	g.backend = nil
	g.ensured = false
	return err
}
