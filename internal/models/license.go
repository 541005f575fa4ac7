// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LicenseStatus represents the activation state of a license key.
type LicenseStatus string

const (
	LicenseActive   LicenseStatus = "active"
	LicenseInactive LicenseStatus = "inactive"
	LicenseExpired  LicenseStatus = "expired"
	LicenseDisabled LicenseStatus = "disabled"
)

// PlanType distinguishes recurring subscriptions from lifetime purchases.
type PlanType string

const (
	PlanSubscribe PlanType = "subscribe"
	PlanOneTime   PlanType = "one_time"
)

// LicenseTier represents the product level a license unlocks.
type LicenseTier string

const (
	LicenseTierPro     LicenseTier = "pro"
	LicenseTierProPlus LicenseTier = "pro_plus"
)

// License represents a product license key bound to a user account.
// Keys are globally unique; expiry applies to subscription plans.
type License struct {
	ID        uuid.UUID     `json:"id"`
	Key       string        `json:"key"`
	Status    LicenseStatus `json:"status"`
	PlanType  PlanType      `json:"plan_type"`
	Tier      LicenseTier   `json:"tier"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	OwnerID   *uuid.UUID    `json:"owner_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// OwnerEmail is populated by joined queries (expiry sweep).
	OwnerEmail *string `json:"owner_email,omitempty"`
}

// IsActive returns true if the license grants access right now.
func (l *License) IsActive() bool {
	if l.Status != LicenseActive {
		return false
	}
	if l.PlanType == PlanSubscribe && l.ExpiresAt != nil && l.ExpiresAt.Before(time.Now()) {
		return false
	}
	return true
}

// TransactionType distinguishes first activation from renewal.
type TransactionType string

const (
	TransactionActivation TransactionType = "activation"
	TransactionRenewal    TransactionType = "renewal"
)

// TransactionStatus is the settlement state of a license transaction.
type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionPending TransactionStatus = "pending"
	TransactionFailed  TransactionStatus = "failed"
)

// LicenseTransaction is a ledger record of a license activation or renewal
// with its monetary amount and arbitrary provider metadata.
type LicenseTransaction struct {
	ID        uuid.UUID         `json:"id"`
	LicenseID uuid.UUID         `json:"license_id"`
	UserID    uuid.UUID         `json:"user_id"`
	Type      TransactionType   `json:"type"`
	Amount    float64           `json:"amount"`
	Status    TransactionStatus `json:"status"`
	Metadata  json.RawMessage   `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
