package models

import (
	"time"

	"github.com/google/uuid"
)

// Discount is a percentage-off code applied at checkout.
type Discount struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Percent   int       `json:"percent"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewsletterSubscriber is an email address opted into the newsletter.
type NewsletterSubscriber struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
