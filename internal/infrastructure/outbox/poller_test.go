package outbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/wallethub/internal/domain/events"
	"github.com/Haleralex/wallethub/internal/infrastructure/outbox"
)

// fakeEvent implements events.DomainEvent plus the poller's optional
// payloadCarrier interface, mirroring genericEvent in outbox_repository.go.
type fakeEvent struct {
	id          uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
	payload     []byte
}

func (e *fakeEvent) EventID() uuid.UUID     { return e.id }
func (e *fakeEvent) EventType() string      { return e.eventType }
func (e *fakeEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e *fakeEvent) AggregateID() uuid.UUID { return e.aggregateID }
func (e *fakeEvent) Payload() []byte        { return e.payload }

type fakeOutboxRepo struct {
	mu         sync.Mutex
	pending    []events.DomainEvent
	published  []string
	failed     map[string]string
	findErr    error
	markPubErr error
}

func newFakeOutboxRepo(pending ...events.DomainEvent) *fakeOutboxRepo {
	return &fakeOutboxRepo{pending: pending, failed: map[string]string{}}
}

func (f *fakeOutboxRepo) Save(ctx context.Context, event events.DomainEvent) error {
	return errors.New("not used by poller")
}

func (f *fakeOutboxRepo) FindUnpublished(ctx context.Context, limit int) ([]events.DomainEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	// Once drained, simulate an empty queue so Run's later ticks are no-ops.
	out := f.pending
	f.pending = nil
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkPublished(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markPubErr != nil {
		return f.markPubErr
	}
	f.published = append(f.published, eventID)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, eventID string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[eventID] = reason
	return nil
}

type publishedMessage struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	err       error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMessage{subject, data})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestPoller_PublishesPendingEventAndMarksPublished(t *testing.T) {
	event := &fakeEvent{
		id:          uuid.New(),
		eventType:   "wallet.created",
		occurredAt:  time.Now(),
		aggregateID: uuid.New(),
		payload:     []byte(`{"foo":"bar"}`),
	}
	repo := newFakeOutboxRepo(event)
	pub := &fakePublisher{}

	p := outbox.New(repo, pub, testLogger(), outbox.Config{
		SubjectPrefix: "wallethub.events",
		PollInterval:  10 * time.Millisecond,
		BatchSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.published) == 1
	}, 150*time.Millisecond, 5*time.Millisecond)

	<-done

	pub.mu.Lock()
	assert.Equal(t, "wallethub.events.wallet.created", pub.published[0].subject)
	pub.mu.Unlock()

	repo.mu.Lock()
	assert.Equal(t, []string{event.id.String()}, repo.published)
	repo.mu.Unlock()
}

func TestPoller_PublishFailureMarksEventFailed(t *testing.T) {
	event := &fakeEvent{
		id:          uuid.New(),
		eventType:   "proposal.committed",
		occurredAt:  time.Now(),
		aggregateID: uuid.New(),
		payload:     []byte(`{}`),
	}
	repo := newFakeOutboxRepo(event)
	pub := &fakePublisher{err: errors.New("connection refused")}

	p := outbox.New(repo, pub, testLogger(), outbox.Config{PollInterval: 10 * time.Millisecond, BatchSize: 10})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		_, ok := repo.failed[event.id.String()]
		return ok
	}, 150*time.Millisecond, 5*time.Millisecond)

	repo.mu.Lock()
	assert.Contains(t, repo.failed[event.id.String()], "connection refused")
	assert.Empty(t, repo.published)
	repo.mu.Unlock()
}

func TestPoller_StopEndsRunPromptly(t *testing.T) {
	repo := newFakeOutboxRepo()
	pub := &fakePublisher{}

	p := outbox.New(repo, pub, testLogger(), outbox.Config{PollInterval: time.Hour})

	runReturned := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(runReturned)
	}()

	// Give Run a moment to enter its select loop before stopping it.
	time.Sleep(10 * time.Millisecond)
	p.Stop()

	select {
	case <-runReturned:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestPoller_DefaultsAppliedWhenConfigZero(t *testing.T) {
	repo := newFakeOutboxRepo()
	pub := &fakePublisher{}

	// Zero-value Config must not panic or busy-loop; New should apply sane defaults.
	p := outbox.New(repo, pub, testLogger(), outbox.Config{})
	require.NotNil(t, p)
}
