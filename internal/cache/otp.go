// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

// otp.go provides the Valkey-backed store for one-time verification codes.
// Codes are keyed by purpose and email and expire automatically; deleting
// the entry after a successful verification makes each code single-use.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// otpKeyPrefix namespaces OTP entries in Valkey.
	otpKeyPrefix = "otp:"

	// DefaultOTPTTL is how long an issued code stays valid in the cache.
	DefaultOTPTTL = 600 * time.Second
)

// OTPStore manages one-time code storage in Valkey.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPStore creates an OTP store backed by the given Valkey client.
func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	if ttl == 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPStore{client: client, ttl: ttl}
}

// otpKey builds the Valkey key for a purpose/email pair.
func otpKey(purpose, email string) string {
	return fmt.Sprintf("%s%s:%s", otpKeyPrefix, purpose, email)
}

// Put stores a code for the purpose/email pair, replacing any previous one.
func (s *OTPStore) Put(ctx context.Context, purpose, email, code string) error {
	if err := s.client.Set(ctx, otpKey(purpose, email), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("otp store set: %w", err)
	}
	return nil
}

// Get retrieves the stored code for a purpose/email pair.
// Returns ("", false, nil) when no entry exists (expired or never issued).
func (s *OTPStore) Get(ctx context.Context, purpose, email string) (string, bool, error) {
	code, err := s.client.Get(ctx, otpKey(purpose, email)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("otp store get: %w", err)
	}
	return code, true, nil
}

// Delete removes the entry for a purpose/email pair. Called after a
// successful verification so the code cannot be replayed.
func (s *OTPStore) Delete(ctx context.Context, purpose, email string) error {
	if err := s.client.Del(ctx, otpKey(purpose, email)).Err(); err != nil {
		return fmt.Errorf("otp store delete: %w", err)
	}
	return nil
}
