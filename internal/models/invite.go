// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus tracks the lifecycle of a dashboard invitation.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
)

// Invite lets an admin grant a role to a new user by email. Tokens are
// globally unique and single-use.
type Invite struct {
	ID        uuid.UUID    `json:"id"`
	Email     string       `json:"email"`
	Role      Role         `json:"role"`
	Token     string       `json:"token"`
	Status    InviteStatus `json:"status"`
	ExpiresAt time.Time    `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsUsable returns true if the invite can still be accepted.
func (i *Invite) IsUsable() bool {
	return i.Status == InvitePending && i.ExpiresAt.After(time.Now())
}
