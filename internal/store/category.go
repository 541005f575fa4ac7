// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"moonui/internal/models"
)

// CategoryStore manages asset categories in the database. Categories are
// scoped per content kind and form a tree through the nullable parent
// reference; deleting a parent re-roots its children (ON DELETE SET NULL).
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, kind, name, slug, parent_id, owner_id, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Kind, &c.Name, &c.Slug,
		&c.ParentID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByKind returns all categories of one kind ordered by name, with
// published asset counts.
func (s *CategoryStore) ListByKind(kind models.ContentKind) ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.kind, c.name, c.slug, c.parent_id, c.owner_id,
		       c.created_at, c.updated_at,
		       COUNT(ct.id) AS asset_count
		FROM categories c
		LEFT JOIN contents ct ON ct.category_id = c.id AND ct.status = 'published'
		WHERE c.kind = $1
		GROUP BY c.id
		ORDER BY c.name
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.Kind, &c.Name, &c.Slug, &c.ParentID, &c.OwnerID,
			&c.CreatedAt, &c.UpdatedAt,
			&c.AssetCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Tree returns one kind's categories as a nested tree structure.
func (s *CategoryStore) Tree(kind models.ContentKind) ([]models.Category, error) {
	flat, err := s.ListByKind(kind)
	if err != nil {
		return nil, err
	}
	return buildTree(flat, nil, 0), nil
}

// buildTree recursively builds a tree from a flat list.
func buildTree(flat []models.Category, parentID *uuid.UUID, depth int) []models.Category {
	var result []models.Category
	for _, c := range flat {
		if ptrEqual(c.ParentID, parentID) {
			c.Depth = depth
			c.Children = buildTree(flat, &c.ID, depth+1)
			result = append(result, c)
		}
	}
	return result
}

// ptrEqual compares two *uuid.UUID for equality (both nil or same value).
func ptrEqual(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// FlatTree returns one kind's categories as a flat list ordered for display,
// with Depth set for indentation. Useful for <select> dropdowns.
func (s *CategoryStore) FlatTree(kind models.ContentKind) ([]models.Category, error) {
	tree, err := s.Tree(kind)
	if err != nil {
		return nil, err
	}
	var result []models.Category
	flattenTree(tree, &result)
	return result, nil
}

// flattenTree walks a category tree depth-first, appending to result.
func flattenTree(cats []models.Category, result *[]models.Category) {
	for _, c := range cats {
		*result = append(*result, c)
		if len(c.Children) > 0 {
			flattenTree(c.Children, result)
		}
	}
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	row := s.db.QueryRow(`
		INSERT INTO categories (kind, name, slug, parent_id, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.Kind, c.Name, c.Slug, c.ParentID, c.OwnerID,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(c *models.Category) error {
	_, err := s.db.Exec(`
		UPDATE categories SET
			name = $1, slug = $2, parent_id = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Name, c.Slug, c.ParentID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category by ID. Children are re-rooted and assets keep
// their rows with category_id nulled (ON DELETE SET NULL on both FKs).
func (s *CategoryStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
