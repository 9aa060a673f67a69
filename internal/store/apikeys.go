package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// StoreAPIKey persists a freshly issued business key hash as active.
func (s *Store) StoreAPIKey(ctx context.Context, businessID int64, keyHash string) error {
	_, err := s.Db.Exec(ctx,
		"INSERT INTO api_keys (business_id, key_hash, status) VALUES ($1, $2, 'active')",
		businessID, keyHash)
	return err
}

// StoreAPIKeyTx is the transactional variant used by rotation.
func StoreAPIKeyTx(ctx context.Context, tx pgx.Tx, businessID int64, keyHash string) error {
	_, err := tx.Exec(ctx,
		"INSERT INTO api_keys (business_id, key_hash, status) VALUES ($1, $2, 'active')",
		businessID, keyHash)
	return err
}

// ExpireAPIKeyTx puts the key into the rotation grace window: it stays
// valid until expires_at.
func ExpireAPIKeyTx(ctx context.Context, tx pgx.Tx, keyID int64, expiresAt time.Time) error {
	_, err := tx.Exec(ctx,
		"UPDATE api_keys SET status = 'expiring', expires_at = $1 WHERE id = $2",
		expiresAt, keyID)
	return err
}

// RevokeAPIKeyTx kills the key immediately. Revoked keys never validate.
func RevokeAPIKeyTx(ctx context.Context, tx pgx.Tx, keyID int64) error {
	_, err := tx.Exec(ctx,
		"UPDATE api_keys SET status = 'revoked', expires_at = now() WHERE id = $1", keyID)
	return err
}

// VerifyBusinessAPIKey resolves a key hash to its business id. A key is
// valid while active, or while expiring with expires_at in the future.
func (s *Store) VerifyBusinessAPIKey(ctx context.Context, keyHash string) (int64, error) {
	var businessID int64
	err := s.Db.QueryRow(ctx,
		`SELECT business_id FROM api_keys
		 WHERE key_hash = $1
		   AND status IN ('active', 'expiring')
		   AND (expires_at IS NULL OR expires_at > now())`, keyHash).Scan(&businessID)
	if err != nil {
		return 0, err
	}
	return businessID, nil
}

func (s *Store) StoreAdminAPIKey(ctx context.Context, adminID int64, keyHash string) error {
	_, err := s.Db.Exec(ctx,
		"INSERT INTO admin_api_keys (admin_id, key_hash) VALUES ($1, $2)", adminID, keyHash)
	return err
}

func (s *Store) RevokeAdminAPIKey(ctx context.Context, keyID int64) error {
	_, err := s.Db.Exec(ctx,
		"UPDATE admin_api_keys SET status = 'revoked' WHERE id = $1", keyID)
	return err
}

func (s *Store) VerifyAdminAPIKey(ctx context.Context, keyHash string) (int64, error) {
	var adminID int64
	err := s.Db.QueryRow(ctx,
		"SELECT admin_id FROM admin_api_keys WHERE key_hash = $1 AND status = 'active'",
		keyHash).Scan(&adminID)
	if err != nil {
		return 0, err
	}
	return adminID, nil
}
