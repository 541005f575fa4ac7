package store

import (
	"database/sql"
	"fmt"
	"strings"

	"moonui/internal/models"
)

// NewsletterStore handles newsletter subscriber records.
type NewsletterStore struct {
	db *sql.DB
}

// NewNewsletterStore creates a new NewsletterStore.
func NewNewsletterStore(db *sql.DB) *NewsletterStore {
	return &NewsletterStore{db: db}
}

const subscriberColumns = `id, email, active, created_at, updated_at`

// List returns all subscribers, newest first.
func (s *NewsletterStore) List() ([]models.NewsletterSubscriber, error) {
	rows, err := s.db.Query(`SELECT ` + subscriberColumns + ` FROM newsletter_subscribers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var items []models.NewsletterSubscriber
	for rows.Next() {
		var sub models.NewsletterSubscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		items = append(items, sub)
	}
	return items, rows.Err()
}

// Subscribe adds an email to the newsletter, reactivating a previous
// unsubscribe. The unique constraint makes this safe to call repeatedly.
func (s *NewsletterStore) Subscribe(email string) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber
	err := s.db.QueryRow(`
		INSERT INTO newsletter_subscribers (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET active = TRUE, updated_at = NOW()
		RETURNING `+subscriberColumns,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&sub.ID, &sub.Email, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return &sub, nil
}

// Unsubscribe deactivates a subscriber without deleting the row.
func (s *NewsletterStore) Unsubscribe(email string) error {
	_, err := s.db.Exec(`
		UPDATE newsletter_subscribers SET active = FALSE, updated_at = NOW()
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}
