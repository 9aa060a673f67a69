package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/dodoledger/internal/store"
)

// ErrUnauthenticated is the single outcome for every verification
// failure. Callers never learn whether a key was unknown, expired or
// revoked.
var ErrUnauthenticated = errors.New("unauthenticated")

const (
	keyPrefix     = "dodo_live_"
	keyRandomLen  = 48
	rotationGrace = 7 * 24 * time.Hour
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// KeyService issues, verifies, rotates and revokes API keys. Raw tokens
// are surfaced exactly once at issuance; only HMAC-SHA256 hashes are
// persisted.
type KeyService struct {
	db     *pgxpool.Pool
	store  *store.Store
	secret []byte
}

func NewKeyService(s *store.Store, secret string) *KeyService {
	return &KeyService{db: s.Db, store: s, secret: []byte(secret)}
}

// GenerateKey produces a fresh raw token and its storable hash.
func (k *KeyService) GenerateKey() (raw, hash string, err error) {
	buf := make([]byte, keyRandomLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("key generation failed: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphanumeric[int(b)%len(alphanumeric)]
	}
	raw = keyPrefix + string(buf)
	return raw, k.HashKey(raw), nil
}

// HashKey computes the hex-encoded HMAC-SHA256 of a raw token under the
// process-wide server secret.
func (k *KeyService) HashKey(raw string) string {
	mac := hmac.New(sha256.New, k.secret)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// IssueBusinessKey mints and persists a new active key for the business
// and returns the raw token.
func (k *KeyService) IssueBusinessKey(ctx context.Context, businessID int64) (string, error) {
	raw, hash, err := k.GenerateKey()
	if err != nil {
		return "", err
	}
	if err := k.store.StoreAPIKey(ctx, businessID, hash); err != nil {
		return "", fmt.Errorf("api key insert failed: %w", err)
	}
	return raw, nil
}

// RotateBusinessKey atomically marks the old key expiring with a grace
// window and inserts a replacement. Both keys validate until the window
// closes.
func (k *KeyService) RotateBusinessKey(ctx context.Context, keyID, businessID int64) (string, error) {
	raw, hash, err := k.GenerateKey()
	if err != nil {
		return "", err
	}

	tx, err := k.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	expiresAt := time.Now().UTC().Add(rotationGrace)
	if err := store.ExpireAPIKeyTx(ctx, tx, keyID, expiresAt); err != nil {
		return "", fmt.Errorf("key expiry update failed: %w", err)
	}
	if err := store.StoreAPIKeyTx(ctx, tx, businessID, hash); err != nil {
		return "", fmt.Errorf("replacement key insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("tx commit failed: %w", err)
	}
	return raw, nil
}

// RevokeBusinessKey kills the key immediately.
func (k *KeyService) RevokeBusinessKey(ctx context.Context, keyID int64) error {
	tx, err := k.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := store.RevokeAPIKeyTx(ctx, tx, keyID); err != nil {
		return fmt.Errorf("key revoke failed: %w", err)
	}
	return tx.Commit(ctx)
}

// IssueAdminKey mints a key in the admin namespace. Admin keys carry no
// expiry; they are revoke-only.
func (k *KeyService) IssueAdminKey(ctx context.Context, adminID int64) (string, error) {
	raw, hash, err := k.GenerateKey()
	if err != nil {
		return "", err
	}
	if err := k.store.StoreAdminAPIKey(ctx, adminID, hash); err != nil {
		return "", fmt.Errorf("admin key insert failed: %w", err)
	}
	return raw, nil
}

func (k *KeyService) RevokeAdminKey(ctx context.Context, keyID int64) error {
	return k.store.RevokeAdminAPIKey(ctx, keyID)
}

// VerifyBusinessKey resolves a raw bearer token to a business id.
func (k *KeyService) VerifyBusinessKey(ctx context.Context, raw string) (int64, error) {
	businessID, err := k.store.VerifyBusinessAPIKey(ctx, k.HashKey(raw))
	if err == pgx.ErrNoRows {
		return 0, ErrUnauthenticated
	}
	if err != nil {
		return 0, fmt.Errorf("key lookup failed: %w", err)
	}
	return businessID, nil
}

// VerifyAdminKey resolves a raw bearer token to an admin id.
func (k *KeyService) VerifyAdminKey(ctx context.Context, raw string) (int64, error) {
	adminID, err := k.store.VerifyAdminAPIKey(ctx, k.HashKey(raw))
	if err == pgx.ErrNoRows {
		return 0, ErrUnauthenticated
	}
	if err != nil {
		return 0, fmt.Errorf("admin key lookup failed: %w", err)
	}
	return adminID, nil
}
