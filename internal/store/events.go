package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

// CreateWebhookEvent inserts the outbox row inside the caller's ledger
// transaction so the movement and its event commit or roll back together.
func CreateWebhookEvent(ctx context.Context, tx pgx.Tx, webhookID int64, eventType string, payload json.RawMessage) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO webhook_events (webhook_id, event_type, payload, status, attempt_count)
		 VALUES ($1, $2, $3, 'pending', 0)
		 RETURNING id`,
		webhookID, eventType, payload).Scan(&id)
	return id, err
}

func (s *Store) GetWebhookEvent(ctx context.Context, eventID int64) (*domain.WebhookEvent, error) {
	var e domain.WebhookEvent
	err := s.Db.QueryRow(ctx,
		`SELECT id, webhook_id, event_type, payload, status, attempt_count, next_retry_at, created_at
		 FROM webhook_events
		 WHERE id = $1`, eventID).
		Scan(&e.ID, &e.WebhookID, &e.EventType, &e.Payload, &e.Status,
			&e.AttemptCount, &e.NextRetryAt, &e.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) MarkWebhookEventDelivered(ctx context.Context, eventID int64) error {
	_, err := s.Db.Exec(ctx,
		"UPDATE webhook_events SET status = 'delivered' WHERE id = $1 AND status = 'pending'",
		eventID)
	return err
}

func (s *Store) MarkWebhookEventFailed(ctx context.Context, eventID int64) error {
	_, err := s.Db.Exec(ctx,
		"UPDATE webhook_events SET status = 'failed' WHERE id = $1 AND status = 'pending'",
		eventID)
	return err
}

// ScheduleWebhookRetry bumps the attempt counter and stores the next
// wake-up. The status guard keeps it from racing a terminal transition.
func (s *Store) ScheduleWebhookRetry(ctx context.Context, eventID int64, nextRetryAt time.Time) error {
	_, err := s.Db.Exec(ctx,
		`UPDATE webhook_events
		 SET attempt_count = attempt_count + 1, next_retry_at = $2
		 WHERE id = $1 AND status = 'pending'`,
		eventID, nextRetryAt)
	return err
}

// GetPendingWebhookEvents returns ids of events that are due: pending
// with no scheduled retry, or whose retry time has passed.
func (s *Store) GetPendingWebhookEvents(ctx context.Context) ([]int64, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id FROM webhook_events
		 WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= now())
		 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
