// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a hierarchical asset category, scoped to one content
// kind. Deleting a parent does not cascade: children become roots and assets
// keep their rows with the category reference nulled out.
type Category struct {
	ID        uuid.UUID   `json:"id"`
	Kind      ContentKind `json:"kind"`
	Name      string      `json:"name"`
	Slug      string      `json:"slug"`
	ParentID  *uuid.UUID  `json:"parent_id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Virtual fields populated by store methods.
	Children   []Category `json:"children,omitempty"`
	Depth      int        `json:"depth"`
	AssetCount int        `json:"asset_count"`
}
