package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

// CreateWebhook registers an endpoint with a freshly generated signing
// secret and returns its id.
func (s *Store) CreateWebhook(ctx context.Context, businessID int64, url, secret string) (int64, error) {
	var id int64
	err := s.Db.QueryRow(ctx,
		"INSERT INTO webhooks (business_id, url, secret, status) VALUES ($1, $2, $3, 'active') RETURNING id",
		businessID, url, secret).Scan(&id)
	return id, err
}

func (s *Store) GetWebhooksByBusiness(ctx context.Context, businessID int64) ([]domain.Webhook, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id, business_id, url, status, created_at
		 FROM webhooks
		 WHERE business_id = $1
		 ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webhooks []domain.Webhook
	for rows.Next() {
		var w domain.Webhook
		if err := rows.Scan(&w.ID, &w.BusinessID, &w.URL, &w.Status, &w.CreatedAt); err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

// GetActiveWebhookID resolves the single endpoint the ledger emits to.
// The write path only ever uses one active endpoint per business.
func GetActiveWebhookID(ctx context.Context, tx pgx.Tx, businessID int64) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		"SELECT id FROM webhooks WHERE business_id = $1 AND status = 'active'",
		businessID).Scan(&id)
	return id, err
}

// GetWebhook loads the full endpoint row including the signing secret.
func (s *Store) GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error) {
	var w domain.Webhook
	err := s.Db.QueryRow(ctx,
		"SELECT id, business_id, url, status, secret, created_at FROM webhooks WHERE id = $1", id).
		Scan(&w.ID, &w.BusinessID, &w.URL, &w.Status, &w.Secret, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateWebhook patches url and/or status; nil fields keep their value.
// Returns the number of rows touched so callers can surface 404.
func (s *Store) UpdateWebhook(ctx context.Context, businessID, webhookID int64, url, status *string) (int64, error) {
	tag, err := s.Db.Exec(ctx,
		`UPDATE webhooks
		 SET url = COALESCE($1, url), status = COALESCE($2, status)
		 WHERE id = $3 AND business_id = $4`,
		url, status, webhookID, businessID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DisableWebhook(ctx context.Context, businessID, webhookID int64) (int64, error) {
	tag, err := s.Db.Exec(ctx,
		"UPDATE webhooks SET status = 'disabled' WHERE id = $1 AND business_id = $2",
		webhookID, businessID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
