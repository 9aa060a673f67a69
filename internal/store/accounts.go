package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

// CreateAccount opens a new account for the business with a zero balance.
func (s *Store) CreateAccount(ctx context.Context, businessID int64, acc domain.NewAccount) (int64, error) {
	var id int64
	err := s.Db.QueryRow(ctx,
		"INSERT INTO business_accounts (business_id, name, currency) VALUES ($1, $2, $3) RETURNING id",
		businessID, acc.Name, acc.Currency).Scan(&id)
	return id, err
}

func (s *Store) GetAccountsByBusiness(ctx context.Context, businessID int64) ([]domain.Account, error) {
	rows, err := s.Db.Query(ctx,
		`SELECT id, name, currency, status, balance, created_at
		 FROM business_accounts
		 WHERE business_id = $1
		 ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.Status, &a.Balance, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	var a domain.Account
	err := s.Db.QueryRow(ctx,
		`SELECT id, name, currency, status, balance, created_at
		 FROM business_accounts
		 WHERE id = $1`, accountID).
		Scan(&a.ID, &a.Name, &a.Currency, &a.Status, &a.Balance, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAccountBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.Db.QueryRow(ctx,
		"SELECT balance FROM business_accounts WHERE id = $1", accountID).Scan(&balance)
	return balance, err
}

// ValidateAccountOwnership reports whether the account belongs to the business.
func (s *Store) ValidateAccountOwnership(ctx context.Context, businessID, accountID int64) (bool, error) {
	var one int
	err := s.Db.QueryRow(ctx,
		"SELECT 1 FROM business_accounts WHERE id = $1 AND business_id = $2",
		accountID, businessID).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LockAccount acquires a FOR UPDATE row lock inside the given transaction
// and returns the current balance and status. Callers locking two
// accounts must lock in ascending id order.
func LockAccount(ctx context.Context, tx pgx.Tx, accountID int64) (decimal.Decimal, string, error) {
	var balance decimal.Decimal
	var status string
	err := tx.QueryRow(ctx,
		"SELECT balance, status FROM business_accounts WHERE id = $1 FOR UPDATE",
		accountID).Scan(&balance, &status)
	return balance, status, err
}

// UpdateBalance overwrites the locked account's balance inside the transaction.
func UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, newBalance decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		"UPDATE business_accounts SET balance = $1 WHERE id = $2", newBalance, accountID)
	return err
}
