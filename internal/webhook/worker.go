package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Delivery attempts by outcome",
	}, []string{"outcome"})

	deliveryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "webhook_delivery_duration_seconds",
		Help:    "Latency of outbound webhook POSTs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)

// EventStore is the slice of the persistence layer the delivery pipeline
// needs: outbox rows and endpoint configs.
type EventStore interface {
	GetWebhookEvent(ctx context.Context, eventID int64) (*domain.WebhookEvent, error)
	GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error)
	MarkWebhookEventDelivered(ctx context.Context, eventID int64) error
	MarkWebhookEventFailed(ctx context.Context, eventID int64) error
	ScheduleWebhookRetry(ctx context.Context, eventID int64, nextRetryAt time.Time) error
	GetPendingWebhookEvents(ctx context.Context) ([]int64, error)
}

const postTimeout = 10 * time.Second

// Worker is the single consumer of the delivery queue. Running more than
// one per process is safe for state transitions (they are conditioned on
// status) but can duplicate HTTP sends for the same event; keep it at one.
type Worker struct {
	store     EventStore
	scheduler RetryScheduler
	queue     *Queue
	client    *http.Client
	log       *zap.Logger
}

func NewWorker(store EventStore, scheduler RetryScheduler, queue *Queue, log *zap.Logger) *Worker {
	return &Worker{
		store:     store,
		scheduler: scheduler,
		queue:     queue,
		client:    &http.Client{Timeout: postTimeout},
		log:       log,
	}
}

// Run consumes the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("webhook worker started")
	for {
		msg, ok := w.queue.Pop(ctx)
		if !ok {
			w.log.Info("webhook worker stopped")
			return
		}
		w.process(ctx, msg.EventID)
	}
}

func (w *Worker) process(ctx context.Context, eventID int64) {
	log := w.log.With(zap.Int64("webhook_event_id", eventID))

	event, err := w.store.GetWebhookEvent(ctx, eventID)
	if err != nil {
		// Recovery re-enqueues the row on the next boot.
		log.Error("failed to load webhook event", zap.Error(err))
		return
	}
	if event == nil {
		log.Error("webhook event not found")
		return
	}
	if event.Status == domain.EventDelivered || event.Status == domain.EventFailed {
		log.Warn("skipping terminal webhook event", zap.String("status", event.Status))
		return
	}

	endpoint, err := w.store.GetWebhook(ctx, event.WebhookID)
	if err != nil || endpoint == nil {
		log.Error("webhook config missing", zap.Int64("webhook_id", event.WebhookID), zap.Error(err))
		return
	}
	if endpoint.Status != domain.WebhookActive {
		// Not a terminal failure: the endpoint may be re-enabled.
		log.Error("webhook endpoint disabled", zap.Int64("webhook_id", endpoint.ID))
		return
	}

	if err := w.post(ctx, endpoint, event); err != nil {
		log.Warn("webhook delivery failed",
			zap.Int("attempt", event.AttemptCount), zap.Error(err))
		w.handleFailure(ctx, event, log)
		return
	}

	if err := w.store.MarkWebhookEventDelivered(ctx, eventID); err != nil {
		log.Error("failed to mark event delivered", zap.Error(err))
		return
	}
	deliveriesTotal.WithLabelValues("delivered").Inc()
	log.Info("webhook event delivered")
}

func (w *Worker) handleFailure(ctx context.Context, event *domain.WebhookEvent, log *zap.Logger) {
	next, ok := NextRetry(event.AttemptCount)
	if !ok {
		if err := w.store.MarkWebhookEventFailed(ctx, event.ID); err != nil {
			log.Error("failed to mark event failed", zap.Error(err))
			return
		}
		deliveriesTotal.WithLabelValues("exhausted").Inc()
		log.Warn("webhook retries exhausted", zap.Int("attempts", event.AttemptCount))
		return
	}

	if err := w.store.ScheduleWebhookRetry(ctx, event.ID, next); err != nil {
		log.Error("failed to schedule retry", zap.Error(err))
		return
	}
	if err := w.scheduler.Schedule(ctx, event.ID, next); err != nil {
		// The durable next_retry_at is already set; recovery closes the gap.
		log.Error("failed to arm retry timer", zap.Error(err))
	}
	deliveriesTotal.WithLabelValues("retried").Inc()
	log.Info("webhook retry scheduled", zap.Time("next_retry_at", next))
}

// post issues the delivery. Any 2xx response counts as success; anything
// else, including transport errors and timeouts, is a failure.
func (w *Worker) post(ctx context.Context, endpoint *domain.Webhook, event *domain.WebhookEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(event.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(endpoint.Secret, event.Payload))

	timer := prometheus.NewTimer(deliveryLatency)
	resp, err := w.client.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// StatusError reports a non-2xx response from the receiving endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.Code)
}
