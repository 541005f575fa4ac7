// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moonui/internal/models"
)

// TransactionStore handles the license transaction ledger and the monthly
// revenue-share computation shown on the admin dashboard.
type TransactionStore struct {
	db *sql.DB
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `id, license_id, user_id, type, amount, status, metadata, created_at, updated_at`

// scanTransaction scans a row into a LicenseTransaction struct.
func scanTransaction(scanner interface{ Scan(...any) error }) (*models.LicenseTransaction, error) {
	var t models.LicenseTransaction
	err := scanner.Scan(
		&t.ID, &t.LicenseID, &t.UserID, &t.Type, &t.Amount,
		&t.Status, &t.Metadata, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all transactions, newest first.
func (s *TransactionStore) List() ([]models.LicenseTransaction, error) {
	rows, err := s.db.Query(`SELECT ` + transactionColumns + ` FROM license_transactions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var items []models.LicenseTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// FindByID retrieves a transaction by ID. Returns nil if not found.
func (s *TransactionStore) FindByID(id uuid.UUID) (*models.LicenseTransaction, error) {
	t, err := scanTransaction(s.db.QueryRow(
		`SELECT `+transactionColumns+` FROM license_transactions WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by id: %w", err)
	}
	return t, nil
}

// Create inserts a new transaction record and returns it.
func (s *TransactionStore) Create(t *models.LicenseTransaction) (*models.LicenseTransaction, error) {
	result, err := scanTransaction(s.db.QueryRow(`
		INSERT INTO license_transactions (license_id, user_id, type, amount, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+transactionColumns,
		t.LicenseID, t.UserID, t.Type, t.Amount, t.Status, t.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return result, nil
}

// UpdateStatus moves a transaction to a new settlement state.
func (s *TransactionStore) UpdateStatus(id uuid.UUID, status models.TransactionStatus) error {
	_, err := s.db.Exec(`
		UPDATE license_transactions SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	return nil
}

// SumSuccessfulForMonth totals successful transaction amounts within the
// calendar month containing now, bounds inclusive of the whole month.
func (s *TransactionStore) SumSuccessfulForMonth(now time.Time) (float64, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)

	var total float64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM license_transactions
		WHERE status = 'success' AND created_at >= $1 AND created_at < $2
	`, start, end).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum monthly transactions: %w", err)
	}
	return total, nil
}

// RevenueSplit is the fixed 30/70 division of a month's successful revenue
// between the superadmin and the pool of admin users.
type RevenueSplit struct {
	Total               float64
	SuperAdminShare     float64
	AdminShareTotal     float64
	AdminCount          int
	AdminSharePerPerson float64
}

// SplitRevenue computes the 30/70 split for a given total and admin count.
// With no admins the per-person share is zero rather than a division error.
func SplitRevenue(total float64, adminCount int) RevenueSplit {
	split := RevenueSplit{
		Total:           total,
		SuperAdminShare: total * 0.30,
		AdminShareTotal: total * 0.70,
		AdminCount:      adminCount,
	}
	if adminCount > 0 {
		split.AdminSharePerPerson = split.AdminShareTotal / float64(adminCount)
	}
	return split
}

// RevenueSplitForMonth computes the current month's revenue split, dividing
// the admin pool share evenly across users holding the admin role.
func (s *TransactionStore) RevenueSplitForMonth(now time.Time, users *UserStore) (RevenueSplit, error) {
	total, err := s.SumSuccessfulForMonth(now)
	if err != nil {
		return RevenueSplit{}, err
	}
	adminCount, err := users.CountByRole(models.RoleAdmin)
	if err != nil {
		return RevenueSplit{}, err
	}
	return SplitRevenue(total, adminCount), nil
}
