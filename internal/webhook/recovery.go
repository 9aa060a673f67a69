package webhook

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Recover enqueues every due pending outbox event. Run at startup before
// the server takes traffic; it closes the gaps left by lost timer
// notifications and crashes between commit and enqueue or between a
// successful POST and the delivered mark.
func Recover(ctx context.Context, store EventStore, queue *Queue, log *zap.Logger) error {
	ids, err := store.GetPendingWebhookEvents(ctx)
	if err != nil {
		return fmt.Errorf("loading pending webhook events: %w", err)
	}
	for _, id := range ids {
		queue.Push(Message{EventID: id})
	}
	if len(ids) > 0 {
		log.Info("re-enqueued pending webhook events", zap.Int("count", len(ids)))
	}
	return nil
}
