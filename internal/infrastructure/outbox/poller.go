// Package outbox implements the publish side of the Transactional Outbox
// pattern described in internal/infrastructure/persistence/postgres's
// outbox_repository.go: a background process that reads PENDING rows and
// publishes them to NATS, marking each one PUBLISHED or FAILED afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/events"
)

// Publisher is the subset of *nats.Conn the poller needs. *nats.Conn
// satisfies it directly - the interface exists so tests don't need a live
// NATS server.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// payloadCarrier is implemented by deserialized events that still carry
// their raw JSON bytes (see genericEvent in outbox_repository.go). The
// poller publishes that raw payload verbatim rather than re-marshaling an
// event it only partially reconstructed.
type payloadCarrier interface {
	Payload() []byte
}

// envelope is what actually goes out on the wire. The subject already
// carries aggregate type and event type, so the envelope itself only needs
// enough to let a subscriber correlate and deduplicate.
type envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Poller periodically drains ports.OutboxRepository.FindUnpublished and
// publishes each event to NATS under <subjectPrefix>.<eventType>.
//
// It never blocks the request path: Save happens inside the business
// transaction, publication happens here, later, at-least-once. Consumers
// must be idempotent on event_id.
type Poller struct {
	repo     ports.OutboxRepository
	nc       Publisher
	logger   *slog.Logger
	subject  string
	interval time.Duration
	batch    int
	maxRetry int

	stop chan struct{}
	done chan struct{}
}

// Config bundles the poller's tunables so New doesn't take a long
// positional arg list.
type Config struct {
	SubjectPrefix string
	PollInterval  time.Duration
	BatchSize     int
	MaxRetries    int
}

// New creates a Poller. nc is a connected NATS client; the poller never
// dials NATS itself, so reconnect policy belongs entirely to the caller's
// nats.Connect options.
func New(repo ports.OutboxRepository, nc Publisher, logger *slog.Logger, cfg Config) *Poller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "wallethub.events"
	}

	return &Poller{
		repo:     repo,
		nc:       nc,
		logger:   logger,
		subject:  cfg.SubjectPrefix,
		interval: cfg.PollInterval,
		batch:    cfg.BatchSize,
		maxRetry: cfg.MaxRetries,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run polls until ctx is cancelled or Stop is called. Intended to run in
// its own goroutine, started from Container.Run and stopped from
// Container.Shutdown.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("outbox poller started",
		slog.String("subject_prefix", p.subject),
		slog.Duration("interval", p.interval),
		slog.Int("batch_size", p.batch),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopping: context cancelled")
			return
		case <-p.stop:
			p.logger.Info("outbox poller stopping")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Stop signals Run to exit and blocks until it has. Safe to call once,
// after which the Poller cannot be restarted.
func (p *Poller) Stop() {
	close(p.stop)
	<-p.done
}

// tick publishes one batch. Errors from an individual event never abort
// the batch - each event is marked FAILED and the poller moves on, so one
// poison message can't starve the rest of the queue.
func (p *Poller) tick(ctx context.Context) {
	pending, err := p.repo.FindUnpublished(ctx, p.batch)
	if err != nil {
		p.logger.Error("failed to load unpublished outbox events", slog.Any("error", err))
		return
	}

	for _, event := range pending {
		p.publishOne(ctx, event)
	}
}

func (p *Poller) publishOne(ctx context.Context, event events.DomainEvent) {
	eventID := event.EventID().String()

	subject := p.subject + "." + event.EventType()

	var raw json.RawMessage
	if carrier, ok := event.(payloadCarrier); ok {
		raw = carrier.Payload()
	} else {
		marshaled, err := json.Marshal(event)
		if err != nil {
			p.markFailed(ctx, eventID, "marshal event: "+err.Error())
			return
		}
		raw = marshaled
	}

	msg, err := json.Marshal(envelope{
		EventID:     eventID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID().String(),
		OccurredAt:  event.OccurredAt(),
		Payload:     raw,
	})
	if err != nil {
		p.markFailed(ctx, eventID, "marshal envelope: "+err.Error())
		return
	}

	if err := p.nc.Publish(subject, msg); err != nil {
		p.markFailed(ctx, eventID, "nats publish: "+err.Error())
		return
	}

	if err := p.repo.MarkPublished(ctx, eventID); err != nil {
		p.logger.Error("published to NATS but failed to mark outbox row published",
			slog.String("event_id", eventID),
			slog.String("subject", subject),
			slog.Any("error", err),
		)
		return
	}

	p.logger.Debug("published outbox event", slog.String("event_id", eventID), slog.String("subject", subject))
}

func (p *Poller) markFailed(ctx context.Context, eventID, reason string) {
	if err := p.repo.MarkFailed(ctx, eventID, reason); err != nil {
		p.logger.Error("failed to mark outbox event failed",
			slog.String("event_id", eventID),
			slog.String("reason", reason),
			slog.Any("error", err),
		)
		return
	}
	p.logger.Warn("outbox event publish failed", slog.String("event_id", eventID), slog.String("reason", reason))
}
