// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentKind distinguishes the four asset types sold in the marketplace.
// All kinds share the contents table, differentiated by the Kind column, so
// stat increments and category lookups dispatch over this enum instead of
// dynamically selected table names.
type ContentKind string

const (
	KindComponent ContentKind = "component"
	KindTemplate  ContentKind = "template"
	KindGradient  ContentKind = "gradient"
	KindDesign    ContentKind = "design"
)

// AllKinds lists every content kind, in display order.
var AllKinds = []ContentKind{KindComponent, KindTemplate, KindGradient, KindDesign}

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindComponent, KindTemplate, KindGradient, KindDesign:
		return true
	}
	return false
}

// ContentTier represents the access level required to use an asset.
type ContentTier string

const (
	TierFree ContentTier = "free"
	TierPro  ContentTier = "pro"
)

// ContentStatus represents the publishing state of an asset.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
)

// StatField names a counter column on the contents table.
type StatField string

const (
	StatView     StatField = "view_count"
	StatCopy     StatField = "copy_count"
	StatDownload StatField = "download_count"
)

// Valid reports whether f is one of the known counter columns.
func (f StatField) Valid() bool {
	switch f {
	case StatView, StatCopy, StatDownload:
		return true
	}
	return false
}

// Content represents a marketplace asset: a UI component, page template,
// gradient, or design file.
type Content struct {
	ID            uuid.UUID     `json:"id"`
	Kind          ContentKind   `json:"kind"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Body          string        `json:"body"`
	Tier          ContentTier   `json:"tier"`
	Status        ContentStatus `json:"status"`
	PreviewURL    *string       `json:"preview_url,omitempty"`
	ArchiveKey    *string       `json:"-"`
	ViewCount     int64         `json:"view_count"`
	CopyCount     int64         `json:"copy_count"`
	DownloadCount int64         `json:"download_count"`
	CategoryID    *uuid.UUID    `json:"category_id,omitempty"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsPublished returns true if the asset is visible on public pages.
func (c *Content) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// IsPro returns true if the asset requires an active pro license.
func (c *Content) IsPro() bool {
	return c.Tier == TierPro
}
