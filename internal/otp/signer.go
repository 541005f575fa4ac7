// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

// Package otp implements issuance and verification of short-lived, single-use
// numeric codes bound to an email address. Two independent mechanisms back
// each code: a Valkey cache entry (server-side state, single-use) and an
// HMAC-signed claim embedded in the emailed link (tamper-evident and
// time-bounded without server-side state). Verification distinguishes a bad
// signature, an expired claim or missing cache entry, and a wrong code.
package otp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Failure modes callers must tell apart. A valid, unexpired signature whose
// cache entry is gone reports ErrExpired, never ErrInvalidSignature; a
// present cache entry with a different code reports ErrIncorrectCode.
var (
	ErrInvalidSignature = errors.New("otp: invalid signature")
	ErrExpired          = errors.New("otp: code expired")
	ErrIncorrectCode    = errors.New("otp: incorrect code")
	ErrUnknownEmail     = errors.New("otp: unknown email")
)

// Purpose namespaces codes so a password-reset code cannot be replayed
// against email verification.
type Purpose string

const (
	PurposeReset  Purpose = "reset"
	PurposeVerify Purpose = "verify"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeReset || p == PurposeVerify
}

// Claim is the payload carried by a signed OTP link. Ref optionally ties the
// claim to a related record, e.g. a license key pending activation.
type Claim struct {
	Email     string  `json:"email"`
	Code      string  `json:"code"`
	Purpose   Purpose `json:"purpose"`
	Ref       string  `json:"ref,omitempty"`
	ExpiresAt int64   `json:"exp"` // unix seconds
}

// Expired reports whether the claim's embedded expiry has passed.
func (c Claim) Expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt
}

// Signer signs and verifies OTP claims with HMAC-SHA-256 keyed by a
// server secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer for the given server secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign serializes the claim and returns "payload.signature", both segments
// URL-safe base64 so the token survives inclusion in a link query parameter.
func (s *Signer) Sign(c Claim) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("otp sign: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.signature(encoded), nil
}

// Verify checks the token's signature and embedded expiry, returning the
// claim on success. Signature validity is checked before expiry so a
// tampered token never reports "expired".
func (s *Signer) Verify(token string, now time.Time) (Claim, error) {
	encoded, sig, found := strings.Cut(token, ".")
	if !found {
		return Claim{}, ErrInvalidSignature
	}

	if !hmac.Equal([]byte(s.signature(encoded)), []byte(sig)) {
		return Claim{}, ErrInvalidSignature
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Claim{}, ErrInvalidSignature
	}

	var c Claim
	if err := json.Unmarshal(payload, &c); err != nil {
		return Claim{}, ErrInvalidSignature
	}

	if c.Expired(now) {
		return Claim{}, ErrExpired
	}

	return c, nil
}

// signature computes the URL-safe base64 HMAC-SHA-256 of the encoded payload.
func (s *Signer) signature(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
