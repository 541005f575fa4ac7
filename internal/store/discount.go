package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"moonui/internal/models"
)

// DiscountStore handles percentage-off checkout codes.
type DiscountStore struct {
	db *sql.DB
}

// NewDiscountStore creates a new DiscountStore.
func NewDiscountStore(db *sql.DB) *DiscountStore {
	return &DiscountStore{db: db}
}

const discountColumns = `id, code, percent, active, created_at, updated_at`

func scanDiscount(scanner interface{ Scan(...any) error }) (*models.Discount, error) {
	var d models.Discount
	err := scanner.Scan(&d.ID, &d.Code, &d.Percent, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all discount codes, newest first.
func (s *DiscountStore) List() ([]models.Discount, error) {
	rows, err := s.db.Query(`SELECT ` + discountColumns + ` FROM discounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	defer rows.Close()

	var items []models.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// FindActiveByCode retrieves an active discount by code (case-insensitive).
// Returns nil if not found or inactive.
func (s *DiscountStore) FindActiveByCode(code string) (*models.Discount, error) {
	d, err := scanDiscount(s.db.QueryRow(
		`SELECT `+discountColumns+` FROM discounts WHERE code = $1 AND active = TRUE`,
		strings.ToUpper(strings.TrimSpace(code))))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find discount by code: %w", err)
	}
	return d, nil
}

// Create inserts a new discount code. Codes are stored uppercase.
func (s *DiscountStore) Create(code string, percent int) (*models.Discount, error) {
	d, err := scanDiscount(s.db.QueryRow(`
		INSERT INTO discounts (code, percent)
		VALUES ($1, $2)
		RETURNING `+discountColumns,
		strings.ToUpper(strings.TrimSpace(code)), percent,
	))
	if err != nil {
		return nil, fmt.Errorf("create discount: %w", err)
	}
	return d, nil
}

// SetActive toggles a discount code on or off.
func (s *DiscountStore) SetActive(id uuid.UUID, active bool) error {
	_, err := s.db.Exec(`
		UPDATE discounts SET active = $1, updated_at = NOW() WHERE id = $2
	`, active, id)
	if err != nil {
		return fmt.Errorf("set discount active: %w", err)
	}
	return nil
}

// Delete removes a discount code by ID.
func (s *DiscountStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	return nil
}
