package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Business is the top-level tenant. Every account, api key, webhook and
// transaction hangs off a business id.
type Business struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	BusinessActive   = "active"
	BusinessDisabled = "disabled"
)

// Account is a monetary container scoped to a business. Balance is a
// fixed-point decimal and must never go negative at a commit boundary.
type Account struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	AccountActive = "active"
	AccountFrozen = "frozen"
)

// NewAccount is the creation DTO. Currency is a 3-char ISO-4217 code and
// is immutable after creation.
type NewAccount struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

const (
	TxnCredit   = "credit"
	TxnDebit    = "debit"
	TxnTransfer = "transfer"
)

const (
	TxnPending   = "pending"
	TxnSucceeded = "succeeded"
	TxnFailed    = "failed"
)

// Transaction is the immutable record of a money movement.
// (business_id, idempotency_key) is unique; a committed row is always
// 'succeeded' because failure paths roll back.
type Transaction struct {
	ID             int64           `json:"id"`
	BusinessID     int64           `json:"business_id"`
	FromAccountID  *int64          `json:"from_account_id"`
	ToAccountID    *int64          `json:"to_account_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	ReferenceID    *string         `json:"reference_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
}

type CreditRequest struct {
	ToAccountID    int64           `json:"to_account_id"`
	Amount         decimal.Decimal `json:"amount"`
	ReferenceID    *string         `json:"reference_id"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type DebitRequest struct {
	FromAccountID  int64           `json:"from_account_id"`
	Amount         decimal.Decimal `json:"amount"`
	ReferenceID    *string         `json:"reference_id"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type TransferRequest struct {
	FromAccountID  int64           `json:"from_account_id"`
	ToAccountID    int64           `json:"to_account_id"`
	Amount         decimal.Decimal `json:"amount"`
	ReferenceID    *string         `json:"reference_id"`
	IdempotencyKey string          `json:"idempotency_key"`
}

const (
	KeyActive   = "active"
	KeyExpiring = "expiring"
	KeyRevoked  = "revoked"
)

// Webhook is a tenant-registered delivery endpoint. The secret signs
// outbound payloads.
type Webhook struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	URL        string    `json:"url"`
	Secret     string    `json:"-"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	WebhookActive   = "active"
	WebhookDisabled = "disabled"
)

type CreateWebhookRequest struct {
	URL string `json:"url"`
}

type UpdateWebhookRequest struct {
	URL    *string `json:"url"`
	Status *string `json:"status"`
}

const (
	EventPending   = "pending"
	EventDelivered = "delivered"
	EventFailed    = "failed"
)

// WebhookEvent is the outbox row co-committed with a ledger mutation.
// 'delivered' and 'failed' are absorbing states.
type WebhookEvent struct {
	ID           int64           `json:"id"`
	WebhookID    int64           `json:"webhook_id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	AttemptCount int             `json:"attempt_count"`
	NextRetryAt  *time.Time      `json:"next_retry_at"`
	CreatedAt    time.Time       `json:"created_at"`
}
