package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	events    map[int64]*domain.WebhookEvent
	webhooks  map[int64]*domain.Webhook
	delivered []int64
	failed    []int64
	retries   map[int64]time.Time
	pending   []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   make(map[int64]*domain.WebhookEvent),
		webhooks: make(map[int64]*domain.Webhook),
		retries:  make(map[int64]time.Time),
	}
}

func (f *fakeStore) GetWebhookEvent(ctx context.Context, eventID int64) (*domain.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[eventID], nil
}

func (f *fakeStore) GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.webhooks[id], nil
}

func (f *fakeStore) MarkWebhookEventDelivered(ctx context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.events[eventID]; e != nil && e.Status == domain.EventPending {
		e.Status = domain.EventDelivered
		f.delivered = append(f.delivered, eventID)
	}
	return nil
}

func (f *fakeStore) MarkWebhookEventFailed(ctx context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.events[eventID]; e != nil && e.Status == domain.EventPending {
		e.Status = domain.EventFailed
		f.failed = append(f.failed, eventID)
	}
	return nil
}

func (f *fakeStore) ScheduleWebhookRetry(ctx context.Context, eventID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.events[eventID]; e != nil && e.Status == domain.EventPending {
		e.AttemptCount++
		e.NextRetryAt = &at
		f.retries[eventID] = at
	}
	return nil
}

func (f *fakeStore) deliveredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func (f *fakeStore) GetPendingWebhookEvents(ctx context.Context) ([]int64, error) {
	return f.pending, nil
}

// memScheduler swaps the redis timer store for a map, per the scheduler
// interface contract.
type memScheduler struct {
	armed map[int64]time.Time
}

func newMemScheduler() *memScheduler {
	return &memScheduler{armed: make(map[int64]time.Time)}
}

func (m *memScheduler) Schedule(ctx context.Context, eventID int64, retryAt time.Time) error {
	m.armed[eventID] = retryAt
	return nil
}

func seedEvent(f *fakeStore, eventID, webhookID int64, attempts int, url string) {
	f.events[eventID] = &domain.WebhookEvent{
		ID:           eventID,
		WebhookID:    webhookID,
		EventType:    "transaction.succeeded",
		Payload:      []byte(`{"event":"transaction.succeeded","data":{"transaction_id":1}}`),
		Status:       domain.EventPending,
		AttemptCount: attempts,
		CreatedAt:    time.Now().UTC(),
	}
	f.webhooks[webhookID] = &domain.Webhook{
		ID:     webhookID,
		URL:    url,
		Secret: "whsec",
		Status: domain.WebhookActive,
	}
}

func TestWorkerDeliversAndMarks(t *testing.T) {
	var gotSig atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig.Store(r.Header.Get(SignatureHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newFakeStore()
	seedEvent(store, 1, 10, 0, srv.URL)
	w := NewWorker(store, newMemScheduler(), NewQueue(), zap.NewNop())

	w.process(context.Background(), 1)

	require.Equal(t, []int64{1}, store.delivered)
	assert.Equal(t, Sign("whsec", store.events[1].Payload), gotSig.Load())
}

func TestWorkerSchedulesRetryOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newFakeStore()
	seedEvent(store, 1, 10, 0, srv.URL)
	sched := newMemScheduler()
	w := NewWorker(store, sched, NewQueue(), zap.NewNop())

	before := time.Now().UTC()
	w.process(context.Background(), 1)

	require.Contains(t, store.retries, int64(1))
	assert.Empty(t, store.failed)
	assert.Equal(t, 1, store.events[1].AttemptCount)

	// First failure backs off 30 seconds.
	at := store.retries[1]
	assert.WithinDuration(t, before.Add(30*time.Second), at, 2*time.Second)
	assert.Equal(t, at, sched.armed[1])
}

func TestWorkerRetriesOnTransportError(t *testing.T) {
	store := newFakeStore()
	// Nothing listens here; the POST fails at the transport level.
	seedEvent(store, 1, 10, 1, "http://127.0.0.1:1/unreachable")
	sched := newMemScheduler()
	w := NewWorker(store, sched, NewQueue(), zap.NewNop())

	before := time.Now().UTC()
	w.process(context.Background(), 1)

	require.Contains(t, store.retries, int64(1))
	assert.WithinDuration(t, before.Add(2*time.Minute), store.retries[1], 2*time.Second)
}

func TestWorkerExhaustsRetryBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newFakeStore()
	seedEvent(store, 1, 10, 4, srv.URL)
	sched := newMemScheduler()
	w := NewWorker(store, sched, NewQueue(), zap.NewNop())

	w.process(context.Background(), 1)

	assert.Equal(t, []int64{1}, store.failed)
	assert.Empty(t, store.retries)
	assert.Empty(t, sched.armed)
	assert.Equal(t, domain.EventFailed, store.events[1].Status)
}

func TestWorkerSkipsTerminalEvents(t *testing.T) {
	var posts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	}))
	defer srv.Close()

	for _, status := range []string{domain.EventDelivered, domain.EventFailed} {
		store := newFakeStore()
		seedEvent(store, 1, 10, 0, srv.URL)
		store.events[1].Status = status
		w := NewWorker(store, newMemScheduler(), NewQueue(), zap.NewNop())

		w.process(context.Background(), 1)

		assert.Empty(t, store.delivered)
		assert.Empty(t, store.retries)
	}
	assert.Equal(t, int64(0), posts.Load())
}

func TestWorkerSkipsUnknownEvent(t *testing.T) {
	store := newFakeStore()
	w := NewWorker(store, newMemScheduler(), NewQueue(), zap.NewNop())

	w.process(context.Background(), 999)

	assert.Empty(t, store.delivered)
	assert.Empty(t, store.failed)
}

func TestWorkerSkipsDisabledEndpoint(t *testing.T) {
	var posts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	}))
	defer srv.Close()

	store := newFakeStore()
	seedEvent(store, 1, 10, 0, srv.URL)
	store.webhooks[10].Status = domain.WebhookDisabled
	w := NewWorker(store, newMemScheduler(), NewQueue(), zap.NewNop())

	w.process(context.Background(), 1)

	// Not marked failed: the endpoint may be re-enabled later.
	assert.Equal(t, int64(0), posts.Load())
	assert.Equal(t, domain.EventPending, store.events[1].Status)
	assert.Empty(t, store.failed)
}

func TestWorkerRunConsumesQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := newFakeStore()
	seedEvent(store, 1, 10, 0, srv.URL)
	seedEvent(store, 2, 10, 0, srv.URL)

	queue := NewQueue()
	queue.Push(Message{EventID: 1})
	queue.Push(Message{EventID: 2})

	w := NewWorker(store, newMemScheduler(), queue, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return store.deliveredCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRecoverEnqueuesPendingEvents(t *testing.T) {
	store := newFakeStore()
	store.pending = []int64{3, 1, 2}
	queue := NewQueue()

	require.NoError(t, Recover(context.Background(), store, queue, zap.NewNop()))

	ctx := context.Background()
	for _, want := range []int64{3, 1, 2} {
		msg, ok := queue.Pop(ctx)
		require.True(t, ok)
		assert.Equal(t, want, msg.EventID)
	}
}
