package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
)

// Backend is the durable append-only queue the gateway writes to.
type Backend interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	Publish(ctx context.Context, subject string, data []byte, msgID string) (string, error)
	ApproximateCount(ctx context.Context) (int64, error)
	Close() error
}

// Dialer opens a Backend for cfg.
type Dialer func(ctx context.Context, cfg config.QueueConfig) (Backend, error)

// JetStreamBackend keeps each queue in its own work-queue stream.
type JetStreamBackend struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	cfg config.QueueConfig
}

// DialJetStream connects to NATS and binds a JetStream context.
func DialJetStream(_ context.Context, cfg config.QueueConfig) (Backend, error) {
	opts := []nats.Option{
		nats.Name("employee-admin-app"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrlRedacted()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return &JetStreamBackend{nc: nc, js: js, cfg: cfg}, nil
}

func (b *JetStreamBackend) streamName() string {
	return b.cfg.Name
}

func (b *JetStreamBackend) Exists(ctx context.Context) (bool, error) {
	_, err := b.js.Stream(ctx, b.streamName())
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get stream: %w", err)
	}
	return true, nil
}

func (b *JetStreamBackend) Create(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        b.streamName(),
		Description: "Employee onboarding and offboarding requests",
		Subjects:    []string{fmt.Sprintf("%s.%s.>", b.cfg.SubjectPrefix, b.cfg.Name)},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      b.cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    b.cfg.Replicas,
		Duplicates:  b.cfg.DuplicateWindow,
	}
	_, err := b.js.CreateStream(ctx, sc)
	if errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	log.Info().Str("stream", sc.Name).Strs("subjects", sc.Subjects).Msg("created JetStream stream")
	return nil
}

func (b *JetStreamBackend) Publish(ctx context.Context, subject string, data []byte, msgID string) (string, error) {
	ack, err := b.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Content-Encoding": []string{"base64"},
		},
	},
		jetstream.WithMsgID(msgID),
		jetstream.WithExpectStream(b.streamName()),
	)
	if err != nil {
		return "", fmt.Errorf("publish to JetStream: %w", err)
	}
	if ack.Duplicate {
		log.Debug().Str("msg_id", msgID).Uint64("sequence", ack.Sequence).Msg("duplicate publish suppressed")
	}
	return fmt.Sprintf("%s-%d", ack.Stream, ack.Sequence), nil
}

func (b *JetStreamBackend) ApproximateCount(ctx context.Context) (int64, error) {
	stream, err := b.js.Stream(ctx, b.streamName())
	if err != nil {
		return 0, fmt.Errorf("get stream: %w", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("get stream info: %w", err)
	}
	return int64(info.State.Msgs), nil
}

func (b *JetStreamBackend) Close() error {
	if b.nc != nil {
		b.nc.Close()
	}
	return nil
}
