package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moonui/internal/models"
)

// InviteStore handles dashboard invitation tokens.
type InviteStore struct {
	db *sql.DB
}

// NewInviteStore creates a new InviteStore.
func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db: db}
}

const inviteColumns = `id, email, role, token, status, expires_at, created_at, updated_at`

// scanInvite scans a row into an Invite struct.
func scanInvite(scanner interface{ Scan(...any) error }) (*models.Invite, error) {
	var i models.Invite
	err := scanner.Scan(
		&i.ID, &i.Email, &i.Role, &i.Token, &i.Status,
		&i.ExpiresAt, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// List returns all invites, newest first.
func (s *InviteStore) List() ([]models.Invite, error) {
	rows, err := s.db.Query(`SELECT ` + inviteColumns + ` FROM invites ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var items []models.Invite
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

// FindByToken retrieves an invite by its unique token. Returns nil if not found.
func (s *InviteStore) FindByToken(token string) (*models.Invite, error) {
	i, err := scanInvite(s.db.QueryRow(
		`SELECT `+inviteColumns+` FROM invites WHERE token = $1`, token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invite by token: %w", err)
	}
	return i, nil
}

// Create inserts a new pending invite with a random token and the given TTL.
func (s *InviteStore) Create(email string, role models.Role, ttl time.Duration) (*models.Invite, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("invite token: %w", err)
	}
	token := hex.EncodeToString(buf)

	i, err := scanInvite(s.db.QueryRow(`
		INSERT INTO invites (email, role, token, status, expires_at)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING `+inviteColumns,
		email, role, token, time.Now().Add(ttl),
	))
	if err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	return i, nil
}

// MarkAccepted transitions a pending invite to accepted.
func (s *InviteStore) MarkAccepted(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE invites SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("accept invite: %w", err)
	}
	return nil
}

// ExpireStale marks pending invites past their expiry as expired.
// Returns the number of rows transitioned.
func (s *InviteStore) ExpireStale() (int64, error) {
	res, err := s.db.Exec(`
		UPDATE invites SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("expire invites: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes an invite by ID.
func (s *InviteStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}
