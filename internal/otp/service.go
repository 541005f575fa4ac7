// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"time"

	"moonui/internal/cache"
	"moonui/internal/models"
)

// codeDigits is the length of generated numeric codes.
const codeDigits = 6

// UserDirectory is the subset of the user store the OTP service needs.
type UserDirectory interface {
	FindByEmail(email string) (*models.User, error)
}

// Mailer delivers the verification email carrying the signed link.
type Mailer interface {
	SendOTP(ctx context.Context, email string, purpose Purpose, code, link string) error
}

// Service issues and verifies one-time codes. The cache entry and the
// signed link expire on the same schedule but are validated independently.
type Service struct {
	signer  *Signer
	codes   *cache.OTPStore
	users   UserDirectory
	mailer  Mailer
	baseURL string
	ttl     time.Duration
}

// NewService creates an OTP service. baseURL is the public origin used to
// build verification links.
func NewService(signer *Signer, codes *cache.OTPStore, users UserDirectory, mailer Mailer, baseURL string, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = cache.DefaultOTPTTL
	}
	return &Service{
		signer:  signer,
		codes:   codes,
		users:   users,
		mailer:  mailer,
		baseURL: baseURL,
		ttl:     ttl,
	}
}

// Send issues a fresh code for the email and purpose, stores it in the
// cache, and emails a link carrying the signed claim. ref optionally binds
// the claim to a related record such as a license key.
// Returns ErrUnknownEmail when no account matches.
func (s *Service) Send(ctx context.Context, purpose Purpose, email, ref string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return fmt.Errorf("otp send lookup: %w", err)
	}
	if user == nil {
		return ErrUnknownEmail
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("otp send: %w", err)
	}

	if err := s.codes.Put(ctx, string(purpose), email, code); err != nil {
		return fmt.Errorf("otp send: %w", err)
	}

	token, err := s.signer.Sign(Claim{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		Ref:       ref,
		ExpiresAt: time.Now().Add(s.ttl).Unix(),
	})
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/verify?token=%s", s.baseURL, url.QueryEscape(token))
	if err := s.mailer.SendOTP(ctx, email, purpose, code, link); err != nil {
		return fmt.Errorf("otp send mail: %w", err)
	}

	slog.Info("otp issued", "purpose", purpose, "email", email)
	return nil
}

// Verify validates the submitted code against the signed token and the
// cache entry. The two checks fail independently:
//   - bad or tampered token            → ErrInvalidSignature
//   - embedded expiry passed           → ErrExpired
//   - cache entry missing (expired)    → ErrExpired
//   - cache code != submitted code     → ErrIncorrectCode
//
// On success the cache entry is deleted so the code is single-use, and the
// verified claim is returned so callers can act on its purpose and ref.
func (s *Service) Verify(ctx context.Context, code, token string) (Claim, error) {
	claim, err := s.signer.Verify(token, time.Now())
	if err != nil {
		return Claim{}, err
	}

	stored, found, err := s.codes.Get(ctx, string(claim.Purpose), claim.Email)
	if err != nil {
		return Claim{}, fmt.Errorf("otp verify: %w", err)
	}
	if !found {
		return Claim{}, ErrExpired
	}
	if stored != code || claim.Code != code {
		return Claim{}, ErrIncorrectCode
	}

	if err := s.codes.Delete(ctx, string(claim.Purpose), claim.Email); err != nil {
		// The code verified; failing the whole call here would let the
		// same code be replayed on retry. Log and continue.
		slog.Warn("otp single-use delete failed", "email", claim.Email, "error", err)
	}

	slog.Info("otp verified", "purpose", claim.Purpose, "email", claim.Email)
	return claim, nil
}

// generateCode returns a random numeric code with leading zeros preserved.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
