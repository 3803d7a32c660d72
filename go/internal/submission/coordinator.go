package submission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
)

// DefaultBatchSize bounds the number of in-flight enqueue calls.
const DefaultBatchSize = 5

// Message types, used as the last subject token.
const (
	MessageTypeEntry       = "entry"
	MessageTypeTermination = "termination"
)

// Coordinator submits drafts to the queue in sequential batches of parallel sends.
type Coordinator struct {
	sender     Sender
	normalizer *Normalizer
	batchSize  int
	clock      clockwork.Clock
	recorder   Recorder
}

type Option func(*Coordinator)

func WithBatchSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func NewCoordinator(sender Sender, normalizer *Normalizer, opts ...Option) *Coordinator {
	c := &Coordinator{
		sender:     sender,
		normalizer: normalizer,
		batchSize:  DefaultBatchSize,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type itemResult struct {
	id        string
	messageID string
	err       error
	envelope  any
}

// Submit attempts every entry exactly once. One entry failing never stops the others.
func (c *Coordinator) Submit(ctx context.Context, entries []models.Entry) Result {
	now := c.clock.Now().UTC()
	submittedAt := now.Format(time.RFC3339Nano)

	results := make([]itemResult, len(entries))
	for b, span := range batches(len(entries), c.batchSize) {
		var wg sync.WaitGroup
		for i := span[0]; i < span[1]; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = c.submitOne(ctx, entries[i], i, submittedAt)
			}(i)
		}
		wg.Wait()
		log.Debug().Int("batch", b).Int("from", span[0]).Int("to", span[1]).Msg("submitted batch")
	}

	res := Result{
		SubmittedAt: submittedAt,
		Accepted:    []Accepted{},
		Failed:      []Failed{},
	}
	outcomes := make([]Outcome, 0, len(results))
	for _, r := range results {
		o := Outcome{EnvelopeID: r.id, Type: models.EnvelopeTypeEntry, Envelope: r.envelope, SubmittedAt: now}
		if r.err != nil {
			res.Failed = append(res.Failed, Failed{ID: r.id, Reason: r.err.Error()})
			o.Error = r.err.Error()
		} else {
			res.Accepted = append(res.Accepted, Accepted{ID: r.id, MessageID: r.messageID})
			o.Accepted = true
			o.MessageID = r.messageID
		}
		outcomes = append(outcomes, o)
	}
	res.OK = len(res.Failed) == 0

	c.record(ctx, outcomes)
	log.Info().
		Int("entries", len(entries)).
		Int("accepted", len(res.Accepted)).
		Int("failed", len(res.Failed)).
		Msg("bulk submission finished")
	return res
}

func (c *Coordinator) submitOne(ctx context.Context, e models.Entry, index int, submittedAt string) itemResult {
	payload := c.normalizer.Normalize(e, index)
	env := models.EntryEnvelope{
		Type:        models.EnvelopeTypeEntry,
		Schema:      models.EnvelopeSchema,
		SubmittedAt: submittedAt,
		ID:          payload.ID,
		Data:        payload,
	}

	dedup, err := dedupID(e, payload)
	if err != nil {
		return itemResult{id: payload.ID, err: err, envelope: env}
	}
	msgID, err := c.sender.Send(ctx, queue.Message{
		Type: MessageTypeEntry,
		ID:   dedup,
		Body: env,
	})
	if err != nil {
		log.Warn().Err(err).Str("id", payload.ID).Int("index", index).Msg("entry not enqueued")
		return itemResult{id: payload.ID, err: err, envelope: env}
	}
	return itemResult{id: payload.ID, messageID: msgID, envelope: env}
}

// Offboard enqueues a single termination request.
func (c *Coordinator) Offboard(ctx context.Context, req OffboardRequest) (OffboardResult, error) {
	if strings.TrimSpace(req.Employee) == "" {
		return OffboardResult{}, ErrEmployeeRequired
	}

	now := c.clock.Now().UTC()
	env := models.TerminationEnvelope{
		Type:        models.EnvelopeTypeTermination,
		Schema:      models.EnvelopeSchema,
		SubmittedAt: now.Format(time.RFC3339Nano),
		RequestedBy: req.RequestedBy,
		Employee:    req.Employee,
		Notes:       req.Notes,
	}
	if req.ManagerID != nil || req.ManagerUPN != nil || req.ManagerName != nil {
		env.Manager = &models.ManagerRef{ID: req.ManagerID, UPN: req.ManagerUPN, Name: req.ManagerName}
	}

	id := uuid.NewString()
	msgID, err := c.sender.Send(ctx, queue.Message{Type: MessageTypeTermination, ID: id, Body: env})

	o := Outcome{EnvelopeID: id, Type: models.EnvelopeTypeTermination, Envelope: env, SubmittedAt: now}
	if err != nil {
		o.Error = err.Error()
		c.record(ctx, []Outcome{o})
		return OffboardResult{}, fmt.Errorf("failed to enqueue termination: %w", err)
	}
	o.Accepted = true
	o.MessageID = msgID
	c.record(ctx, []Outcome{o})

	log.Info().Str("message_id", msgID).Msg("termination enqueued")
	return OffboardResult{OK: true, SubmittedAt: env.SubmittedAt, MessageID: msgID}, nil
}

func (c *Coordinator) record(ctx context.Context, outcomes []Outcome) {
	if c.recorder == nil || len(outcomes) == 0 {
		return
	}
	if err := c.recorder.Record(ctx, outcomes); err != nil {
		log.Error().Err(err).Int("outcomes", len(outcomes)).Msg("failed to record submission outcomes")
	}
}

// dedupID keys an entry by id and save time so a resend of an unchanged draft is suppressed
// while an edited draft goes through. Without a real id and save time the key is a hash of the
// payload, so only byte-identical content is ever suppressed.
func dedupID(e models.Entry, payload models.EntryPayload) (string, error) {
	if id := strings.TrimSpace(e.ID); id != "" && !e.Meta.SavedAt.IsZero() {
		return id + "@" + e.Meta.SavedAt.UTC().Format(time.RFC3339Nano), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// batches splits n items into [from, to) spans of at most size.
func batches(n, size int) [][2]int {
	if size < 1 {
		size = 1
	}
	var spans [][2]int
	for from := 0; from < n; from += size {
		spans = append(spans, [2]int{from, min(from+size, n)})
	}
	return spans
}
