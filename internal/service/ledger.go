package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/domain"
	"github.com/punchamoorthee/dodoledger/internal/store"
	"github.com/punchamoorthee/dodoledger/internal/webhook"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrFrozenAccount     = errors.New("Account is frozen")
	ErrInsufficientFunds = errors.New("Insufficient balance or frozen account")
	ErrSameAccount       = errors.New("Cannot transfer to the same account")
	ErrNoWebhook         = errors.New("Register a Webhook First")
)

// MovementResult reports the outcome of a money movement. Replay is true
// when the idempotency key matched a prior transaction; TxnID then holds
// the original id.
type MovementResult struct {
	TxnID  int64
	Replay bool
}

// LedgerService executes credit, debit and transfer atomically: balance
// mutation, transaction row and outbox event commit together or not at
// all. The queue push happens strictly after commit.
type LedgerService struct {
	db    *pgxpool.Pool
	queue *webhook.Queue
	log   *zap.Logger
}

func NewLedgerService(s *store.Store, queue *webhook.Queue, log *zap.Logger) *LedgerService {
	return &LedgerService{db: s.Db, queue: queue, log: log}
}

type eventPayload struct {
	Event string       `json:"event"`
	Data  eventPayData `json:"data"`
}

type eventPayData struct {
	TransactionID int64           `json:"transaction_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccountID *int64          `json:"from_account_id,omitempty"`
	ToAccountID   *int64          `json:"to_account_id,omitempty"`
	BusinessID    int64           `json:"business_id"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
}

// Credit adds amount to the destination account.
func (l *LedgerService) Credit(ctx context.Context, businessID int64, req domain.CreditRequest) (*MovementResult, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if txnID, found, err := store.CheckIdempotency(ctx, tx, businessID, req.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("idempotency probe failed: %w", err)
	} else if found {
		return &MovementResult{TxnID: txnID, Replay: true}, nil
	}

	balance, status, err := store.LockAccount(ctx, tx, req.ToAccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
	if status != domain.AccountActive {
		return nil, ErrFrozenAccount
	}

	txnID, err := store.InsertTransaction(ctx, tx, businessID,
		nil, &req.ToAccountID, domain.TxnCredit, req.Amount,
		req.ReferenceID, req.IdempotencyKey, domain.TxnPending)
	if err != nil {
		return nil, fmt.Errorf("transaction insert failed: %w", err)
	}

	if err := store.UpdateBalance(ctx, tx, req.ToAccountID, balance.Add(req.Amount)); err != nil {
		return nil, fmt.Errorf("balance update failed: %w", err)
	}
	if err := store.MarkTransactionStatus(ctx, tx, txnID, domain.TxnSucceeded); err != nil {
		return nil, fmt.Errorf("transaction promote failed: %w", err)
	}

	payload := eventPayload{
		Event: "transaction.succeeded",
		Data: eventPayData{
			TransactionID: txnID,
			Type:          domain.TxnCredit,
			Amount:        req.Amount,
			ToAccountID:   &req.ToAccountID,
			BusinessID:    businessID,
			ReferenceID:   req.ReferenceID,
		},
	}
	eventID, err := l.insertOutboxEvent(ctx, tx, businessID, payload)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}
	l.enqueue(eventID)
	return &MovementResult{TxnID: txnID}, nil
}

// Debit removes amount from the source account; it fails on a frozen
// account or insufficient balance.
func (l *LedgerService) Debit(ctx context.Context, businessID int64, req domain.DebitRequest) (*MovementResult, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if txnID, found, err := store.CheckIdempotency(ctx, tx, businessID, req.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("idempotency probe failed: %w", err)
	} else if found {
		return &MovementResult{TxnID: txnID, Replay: true}, nil
	}

	balance, status, err := store.LockAccount(ctx, tx, req.FromAccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
	if status != domain.AccountActive || balance.LessThan(req.Amount) {
		return nil, ErrInsufficientFunds
	}

	txnID, err := store.InsertTransaction(ctx, tx, businessID,
		&req.FromAccountID, nil, domain.TxnDebit, req.Amount,
		req.ReferenceID, req.IdempotencyKey, domain.TxnPending)
	if err != nil {
		return nil, fmt.Errorf("transaction insert failed: %w", err)
	}

	if err := store.UpdateBalance(ctx, tx, req.FromAccountID, balance.Sub(req.Amount)); err != nil {
		return nil, fmt.Errorf("balance update failed: %w", err)
	}
	if err := store.MarkTransactionStatus(ctx, tx, txnID, domain.TxnSucceeded); err != nil {
		return nil, fmt.Errorf("transaction promote failed: %w", err)
	}

	payload := eventPayload{
		Event: "transaction.succeeded",
		Data: eventPayData{
			TransactionID: txnID,
			Type:          domain.TxnDebit,
			Amount:        req.Amount,
			FromAccountID: &req.FromAccountID,
			BusinessID:    businessID,
			ReferenceID:   req.ReferenceID,
		},
	}
	eventID, err := l.insertOutboxEvent(ctx, tx, businessID, payload)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}
	l.enqueue(eventID)
	return &MovementResult{TxnID: txnID}, nil
}

// Transfer moves amount between two accounts of the tenant. Row locks
// are taken in ascending account-id order so concurrent cross-pairs
// cannot deadlock.
func (l *LedgerService) Transfer(ctx context.Context, businessID int64, req domain.TransferRequest) (*MovementResult, error) {
	if req.FromAccountID == req.ToAccountID {
		return nil, ErrSameAccount
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if txnID, found, err := store.CheckIdempotency(ctx, tx, businessID, req.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("idempotency probe failed: %w", err)
	} else if found {
		return &MovementResult{TxnID: txnID, Replay: true}, nil
	}

	firstID, secondID := req.FromAccountID, req.ToAccountID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	firstBal, firstStatus, err := store.LockAccount(ctx, tx, firstID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
	secondBal, secondStatus, err := store.LockAccount(ctx, tx, secondID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}

	fromBal, fromStatus := firstBal, firstStatus
	toBal, toStatus := secondBal, secondStatus
	if req.FromAccountID != firstID {
		fromBal, fromStatus = secondBal, secondStatus
		toBal, toStatus = firstBal, firstStatus
	}

	if fromStatus != domain.AccountActive || toStatus != domain.AccountActive || fromBal.LessThan(req.Amount) {
		return nil, ErrInsufficientFunds
	}

	txnID, err := store.InsertTransaction(ctx, tx, businessID,
		&req.FromAccountID, &req.ToAccountID, domain.TxnTransfer, req.Amount,
		req.ReferenceID, req.IdempotencyKey, domain.TxnPending)
	if err != nil {
		return nil, fmt.Errorf("transaction insert failed: %w", err)
	}

	if err := store.UpdateBalance(ctx, tx, req.FromAccountID, fromBal.Sub(req.Amount)); err != nil {
		return nil, fmt.Errorf("balance update failed: %w", err)
	}
	if err := store.UpdateBalance(ctx, tx, req.ToAccountID, toBal.Add(req.Amount)); err != nil {
		return nil, fmt.Errorf("balance update failed: %w", err)
	}
	if err := store.MarkTransactionStatus(ctx, tx, txnID, domain.TxnSucceeded); err != nil {
		return nil, fmt.Errorf("transaction promote failed: %w", err)
	}

	payload := eventPayload{
		Event: "transaction.succeeded",
		Data: eventPayData{
			TransactionID: txnID,
			Type:          domain.TxnTransfer,
			Amount:        req.Amount,
			FromAccountID: &req.FromAccountID,
			ToAccountID:   &req.ToAccountID,
			BusinessID:    businessID,
			ReferenceID:   req.ReferenceID,
		},
	}
	eventID, err := l.insertOutboxEvent(ctx, tx, businessID, payload)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}
	l.enqueue(eventID)
	return &MovementResult{TxnID: txnID}, nil
}

// insertOutboxEvent resolves the tenant's active endpoint and writes the
// outbox row inside the ledger transaction. No registered endpoint rolls
// the whole movement back.
func (l *LedgerService) insertOutboxEvent(ctx context.Context, tx pgx.Tx, businessID int64, payload eventPayload) (int64, error) {
	webhookID, err := store.GetActiveWebhookID(ctx, tx, businessID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrNoWebhook
		}
		return 0, fmt.Errorf("webhook lookup failed: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("payload marshal failed: %w", err)
	}

	eventID, err := store.CreateWebhookEvent(ctx, tx, webhookID, payload.Event, body)
	if err != nil {
		return 0, fmt.Errorf("webhook event insert failed: %w", err)
	}
	return eventID, nil
}

// enqueue is the post-commit fast path. The outbox row is already
// durable; if the push is lost, recovery picks the event up at boot.
func (l *LedgerService) enqueue(eventID int64) {
	l.queue.Push(webhook.Message{EventID: eventID})
	l.log.Info("webhook event enqueued", zap.Int64("webhook_event_id", eventID))
}
