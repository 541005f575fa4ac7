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

// ContentStore handles all asset-related database operations.
// It serves components, templates, gradients, and designs through the
// unified contents table.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a new ContentStore with the given database connection.
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

const contentColumns = `id, kind, title, slug, body, tier, status, preview_url,
       archive_key, view_count, copy_count, download_count, category_id,
       owner_id, published_at, created_at, updated_at`

// scanContent scans a row into a Content struct.
func scanContent(scanner interface{ Scan(...any) error }) (*models.Content, error) {
	var c models.Content
	err := scanner.Scan(
		&c.ID, &c.Kind, &c.Title, &c.Slug, &c.Body, &c.Tier, &c.Status,
		&c.PreviewURL, &c.ArchiveKey, &c.ViewCount, &c.CopyCount, &c.DownloadCount,
		&c.CategoryID, &c.OwnerID, &c.PublishedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByKind returns all assets of the given kind, newest first.
func (s *ContentStore) ListByKind(kind models.ContentKind) ([]models.Content, error) {
	rows, err := s.db.Query(`
		SELECT `+contentColumns+`
		FROM contents
		WHERE kind = $1
		ORDER BY created_at DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("list contents by kind: %w", err)
	}
	defer rows.Close()
	return collectContents(rows)
}

// ListPublishedByKind returns all published assets of the given kind,
// newest published first. Used for public listing pages.
func (s *ContentStore) ListPublishedByKind(kind models.ContentKind) ([]models.Content, error) {
	rows, err := s.db.Query(`
		SELECT `+contentColumns+`
		FROM contents
		WHERE kind = $1 AND status = 'published'
		ORDER BY published_at DESC NULLS LAST
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("list published contents: %w", err)
	}
	defer rows.Close()
	return collectContents(rows)
}

func collectContents(rows *sql.Rows) ([]models.Content, error) {
	var items []models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves an asset by its UUID. Returns nil if not found.
func (s *ContentStore) FindByID(id uuid.UUID) (*models.Content, error) {
	c, err := scanContent(s.db.QueryRow(
		`SELECT `+contentColumns+` FROM contents WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by id: %w", err)
	}
	return c, nil
}

// FindPublishedBySlug retrieves a published asset by kind and slug.
// Used for public detail pages.
func (s *ContentStore) FindPublishedBySlug(kind models.ContentKind, slug string) (*models.Content, error) {
	c, err := scanContent(s.db.QueryRow(`
		SELECT `+contentColumns+` FROM contents
		WHERE kind = $1 AND slug = $2 AND status = 'published'
	`, kind, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by slug: %w", err)
	}
	return c, nil
}

// Create inserts a new asset and returns it with the generated ID.
func (s *ContentStore) Create(c *models.Content) (*models.Content, error) {
	// If publishing, set the published_at timestamp.
	if c.Status == models.ContentStatusPublished && c.PublishedAt == nil {
		now := time.Now()
		c.PublishedAt = &now
	}

	result, err := scanContent(s.db.QueryRow(`
		INSERT INTO contents (kind, title, slug, body, tier, status, preview_url,
		                      archive_key, category_id, owner_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+contentColumns,
		c.Kind, c.Title, c.Slug, c.Body, c.Tier, c.Status, c.PreviewURL,
		c.ArchiveKey, c.CategoryID, c.OwnerID, c.PublishedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	return result, nil
}

// Update modifies an existing asset.
func (s *ContentStore) Update(c *models.Content) error {
	// If transitioning to published and no published_at set, set it now.
	if c.Status == models.ContentStatusPublished && c.PublishedAt == nil {
		now := time.Now()
		c.PublishedAt = &now
	}

	_, err := s.db.Exec(`
		UPDATE contents SET
			title = $1, slug = $2, body = $3, tier = $4, status = $5,
			preview_url = $6, archive_key = $7, category_id = $8,
			published_at = $9, updated_at = NOW()
		WHERE id = $10
	`, c.Title, c.Slug, c.Body, c.Tier, c.Status,
		c.PreviewURL, c.ArchiveKey, c.CategoryID, c.PublishedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return nil
}

// Delete removes an asset by ID.
func (s *ContentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}

// CountByKind returns the number of assets of the given kind.
func (s *ContentStore) CountByKind(kind models.ContentKind) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM contents WHERE kind = $1`, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count contents: %w", err)
	}
	return count, nil
}

// IncrementStat atomically bumps one of the counter columns with a
// database-side increment. Both the kind and the stat field go through
// their enums, so no user input ever reaches the SQL text; the WHERE
// clause on kind guards against an ID from another asset type.
func (s *ContentStore) IncrementStat(id uuid.UUID, kind models.ContentKind, stat models.StatField) error {
	if !kind.Valid() {
		return fmt.Errorf("increment stat: unknown kind %q", kind)
	}
	if !stat.Valid() {
		return fmt.Errorf("increment stat: unknown stat %q", stat)
	}

	res, err := s.db.Exec(
		fmt.Sprintf(`UPDATE contents SET %s = %s + 1 WHERE id = $1 AND kind = $2`, stat, stat),
		id, kind,
	)
	if err != nil {
		return fmt.Errorf("increment %s: %w", stat, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment %s rows: %w", stat, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
