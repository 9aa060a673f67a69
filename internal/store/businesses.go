package store

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/dodoledger/internal/domain"
)

// CreateBusiness inserts a new tenant and returns its id.
func (s *Store) CreateBusiness(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.Db.QueryRow(ctx, "INSERT INTO businesses (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("business insert failed: %w", err)
	}
	return id, nil
}

func (s *Store) GetBusinesses(ctx context.Context) ([]domain.Business, error) {
	rows, err := s.Db.Query(ctx,
		"SELECT id, name, status, created_at FROM businesses ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []domain.Business
	for rows.Next() {
		var b domain.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func (s *Store) GetBusiness(ctx context.Context, id int64) (*domain.Business, error) {
	var b domain.Business
	err := s.Db.QueryRow(ctx,
		"SELECT id, name, status, created_at FROM businesses WHERE id = $1", id).
		Scan(&b.ID, &b.Name, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ValidateBusiness reports whether the business exists and is active.
func (s *Store) ValidateBusiness(ctx context.Context, id int64) (bool, error) {
	var status string
	err := s.Db.QueryRow(ctx, "SELECT status FROM businesses WHERE id = $1", id).Scan(&status)
	if err != nil {
		return false, err
	}
	return status == domain.BusinessActive, nil
}

// BootstrapAdmin creates the named admin if no admin exists yet and
// returns its id either way.
func (s *Store) BootstrapAdmin(ctx context.Context, username string) (int64, error) {
	var count int64
	if err := s.Db.QueryRow(ctx, "SELECT count(*) FROM admins").Scan(&count); err != nil {
		return 0, fmt.Errorf("admin count failed: %w", err)
	}

	var id int64
	if count == 0 {
		err := s.Db.QueryRow(ctx,
			"INSERT INTO admins (username) VALUES ($1) RETURNING id", username).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("admin insert failed: %w", err)
		}
		return id, nil
	}

	err := s.Db.QueryRow(ctx, "SELECT id FROM admins WHERE username = $1", username).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("admin lookup failed: %w", err)
	}
	return id, nil
}
