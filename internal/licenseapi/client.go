// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

// Package licenseapi is the HTTP client for the third-party license
// validation service. Activation flows call Validate before binding a key
// to a user account.
package licenseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no endpoint is set. Callers decide
// whether to fail closed (production) or skip the remote check (dev).
var ErrNotConfigured = errors.New("licenseapi: not configured")

// Client calls the license validation endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a license API client. baseURL may be empty; Validate then
// returns ErrNotConfigured.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type validateRequest struct {
	Key string `json:"key"`
}

// Validation is the provider's verdict on a license key.
type Validation struct {
	Valid     bool   `json:"valid"`
	PlanType  string `json:"plan_type"`
	Tier      string `json:"tier"`
	ExpiresAt string `json:"expires_at,omitempty"` // RFC 3339, empty for lifetime plans
	Reason    string `json:"reason,omitempty"`
}

// Validate asks the provider whether a key is genuine and what it grants.
// A non-2xx response is an error; an invalid key is NOT — the provider
// answers {valid: false} and callers surface that to the user.
func (c *Client) Validate(ctx context.Context, key string) (*Validation, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(validateRequest{Key: key})
	if err != nil {
		return nil, fmt.Errorf("licenseapi marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/validate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("licenseapi request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("licenseapi http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("licenseapi read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("licenseapi error (status %d): %s", resp.StatusCode, string(body))
	}

	var result Validation
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("licenseapi unmarshal: %w", err)
	}

	return &result, nil
}
