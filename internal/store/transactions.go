package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

// CheckIdempotency looks up a prior transaction for (business, key).
// A hit means the request is a replay; the found id is returned.
func CheckIdempotency(ctx context.Context, tx pgx.Tx, businessID int64, key string) (int64, bool, error) {
	var id int64
	err := tx.QueryRow(ctx,
		"SELECT id FROM transactions WHERE business_id = $1 AND idempotency_key = $2",
		businessID, key).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertTransaction writes the movement row and returns its id.
func InsertTransaction(ctx context.Context, tx pgx.Tx, businessID int64,
	fromAccount, toAccount *int64, txnType string, amount decimal.Decimal,
	referenceID *string, idempotencyKey, status string) (int64, error) {

	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO transactions
		 (business_id, from_account_id, to_account_id, type, amount, status, reference_id, idempotency_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		businessID, fromAccount, toAccount, txnType, amount, status, referenceID, idempotencyKey).
		Scan(&id)
	return id, err
}

func MarkTransactionStatus(ctx context.Context, tx pgx.Tx, txnID int64, status string) error {
	_, err := tx.Exec(ctx, "UPDATE transactions SET status = $1 WHERE id = $2", status, txnID)
	return err
}

func (s *Store) GetTransactionsByBusiness(ctx context.Context, businessID int64) ([]domain.Transaction, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id, business_id, from_account_id, to_account_id, type, amount,
		        status, reference_id, idempotency_key, created_at
		 FROM transactions
		 WHERE business_id = $1
		 ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.FromAccountID, &t.ToAccountID, &t.Type,
			&t.Amount, &t.Status, &t.ReferenceID, &t.IdempotencyKey, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, businessID, txnID int64) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Db.QueryRow(ctx,
		`SELECT id, business_id, from_account_id, to_account_id, type, amount,
		        status, reference_id, idempotency_key, created_at
		 FROM transactions
		 WHERE id = $1 AND business_id = $2`, txnID, businessID).
		Scan(&t.ID, &t.BusinessID, &t.FromAccountID, &t.ToAccountID, &t.Type,
			&t.Amount, &t.Status, &t.ReferenceID, &t.IdempotencyKey, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
