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

// LicenseStore handles all license-related database operations.
type LicenseStore struct {
	db *sql.DB
}

// NewLicenseStore creates a new LicenseStore with the given database connection.
func NewLicenseStore(db *sql.DB) *LicenseStore {
	return &LicenseStore{db: db}
}

const licenseColumns = `id, key, status, plan_type, tier, expires_at, owner_id, created_at, updated_at`

// scanLicense scans a row into a License struct.
func scanLicense(scanner interface{ Scan(...any) error }) (*models.License, error) {
	var l models.License
	err := scanner.Scan(
		&l.ID, &l.Key, &l.Status, &l.PlanType, &l.Tier,
		&l.ExpiresAt, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns all licenses, newest first.
func (s *LicenseStore) List() ([]models.License, error) {
	rows, err := s.db.Query(`SELECT ` + licenseColumns + ` FROM licenses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	defer rows.Close()

	var items []models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		items = append(items, *l)
	}
	return items, rows.Err()
}

// FindByID retrieves a license by ID. Returns nil if not found.
func (s *LicenseStore) FindByID(id uuid.UUID) (*models.License, error) {
	l, err := scanLicense(s.db.QueryRow(
		`SELECT `+licenseColumns+` FROM licenses WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find license by id: %w", err)
	}
	return l, nil
}

// FindByKey retrieves a license by its unique key. Returns nil if not found.
func (s *LicenseStore) FindByKey(key string) (*models.License, error) {
	l, err := scanLicense(s.db.QueryRow(
		`SELECT `+licenseColumns+` FROM licenses WHERE key = $1`, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find license by key: %w", err)
	}
	return l, nil
}

// ListByOwner returns all licenses bound to a user, newest first.
func (s *LicenseStore) ListByOwner(ownerID uuid.UUID) ([]models.License, error) {
	rows, err := s.db.Query(`
		SELECT `+licenseColumns+` FROM licenses
		WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list licenses by owner: %w", err)
	}
	defer rows.Close()

	var items []models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		items = append(items, *l)
	}
	return items, rows.Err()
}

// Create inserts a new license and returns it.
func (s *LicenseStore) Create(l *models.License) (*models.License, error) {
	result, err := scanLicense(s.db.QueryRow(`
		INSERT INTO licenses (key, status, plan_type, tier, expires_at, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+licenseColumns,
		l.Key, l.Status, l.PlanType, l.Tier, l.ExpiresAt, l.OwnerID,
	))
	if err != nil {
		return nil, fmt.Errorf("create license: %w", err)
	}
	return result, nil
}

// Update modifies an existing license.
func (s *LicenseStore) Update(l *models.License) error {
	_, err := s.db.Exec(`
		UPDATE licenses SET
			status = $1, plan_type = $2, tier = $3, expires_at = $4,
			owner_id = $5, updated_at = NOW()
		WHERE id = $6
	`, l.Status, l.PlanType, l.Tier, l.ExpiresAt, l.OwnerID, l.ID)
	if err != nil {
		return fmt.Errorf("update license: %w", err)
	}
	return nil
}

// Activate binds a license key to a user and marks it active.
func (s *LicenseStore) Activate(id uuid.UUID, ownerID uuid.UUID, expiresAt *time.Time) error {
	_, err := s.db.Exec(`
		UPDATE licenses SET
			status = 'active', owner_id = $1, expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, ownerID, expiresAt, id)
	if err != nil {
		return fmt.Errorf("activate license: %w", err)
	}
	return nil
}

// Delete removes a license by ID.
func (s *LicenseStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	return nil
}

// ListExpiringOn returns active subscription licenses whose expiry falls
// anywhere within the given calendar day (00:00:00 through 23:59:59 in the
// day's location), joined with the owner's email. Licenses without an owner
// are excluded: there is nobody to notify.
func (s *LicenseStore) ListExpiringOn(day time.Time) ([]models.License, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	rows, err := s.db.Query(`
		SELECT l.id, l.key, l.status, l.plan_type, l.tier, l.expires_at,
		       l.owner_id, l.created_at, l.updated_at, u.email
		FROM licenses l
		JOIN users u ON u.id = l.owner_id
		WHERE l.plan_type = 'subscribe'
		  AND l.status = 'active'
		  AND l.expires_at >= $1
		  AND l.expires_at < $2
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expiring licenses: %w", err)
	}
	defer rows.Close()

	var items []models.License
	for rows.Next() {
		var l models.License
		var email string
		err := rows.Scan(
			&l.ID, &l.Key, &l.Status, &l.PlanType, &l.Tier,
			&l.ExpiresAt, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt, &email,
		)
		if err != nil {
			return nil, fmt.Errorf("scan expiring license: %w", err)
		}
		l.OwnerEmail = &email
		items = append(items, l)
	}
	return items, rows.Err()
}
