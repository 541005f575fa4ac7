// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

// Package notifier implements the license-expiry sweep: a daily pass that
// warns owners of active subscription licenses expiring exactly seven days
// out. The sweep runs from the authenticated cron endpoint and, optionally,
// from an in-process scheduler.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"moonui/internal/models"
)

// warningLeadDays is how far ahead of expiry the warning goes out.
const warningLeadDays = 7

// LicenseSource is the subset of the license store the sweep needs.
type LicenseSource interface {
	ListExpiringOn(day time.Time) ([]models.License, error)
}

// WarningMailer delivers a single renewal warning.
type WarningMailer interface {
	SendExpiryWarning(ctx context.Context, email, licenseKey, expiresAt string) error
}

// Notifier runs the expiry sweep.
type Notifier struct {
	licenses LicenseSource
	mailer   WarningMailer
}

// New creates a Notifier.
func New(licenses LicenseSource, mailer WarningMailer) *Notifier {
	return &Notifier{licenses: licenses, mailer: mailer}
}

// Result summarizes one sweep run.
type Result struct {
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
}

// Sweep finds active subscription licenses expiring on the calendar day
// seven days after now and emails each owner. Sends fan out concurrently
// and fail independently: one rejected delivery never blocks or fails the
// rest, it only lowers the Sent count.
//
// The sweep is idempotent per calendar day only in the sense that it
// matches the same license set; a second invocation the same day re-sends
// the warnings. Dedup against repeated triggers is the caller's concern.
func (n *Notifier) Sweep(ctx context.Context, now time.Time) (Result, error) {
	target := now.AddDate(0, 0, warningLeadDays)

	expiring, err := n.licenses.ListExpiringOn(target)
	if err != nil {
		return Result{}, fmt.Errorf("expiry sweep: %w", err)
	}

	var sent atomic.Int64
	var wg sync.WaitGroup
	for _, lic := range expiring {
		wg.Add(1)
		go func(lic models.License) {
			defer wg.Done()

			email := ""
			if lic.OwnerEmail != nil {
				email = *lic.OwnerEmail
			}
			if email == "" {
				slog.Warn("expiring license has no resolvable owner email", "key", lic.Key)
				return
			}

			expires := ""
			if lic.ExpiresAt != nil {
				expires = lic.ExpiresAt.Format("January 2, 2006")
			}

			if err := n.mailer.SendExpiryWarning(ctx, email, lic.Key, expires); err != nil {
				slog.Error("expiry warning failed", "key", lic.Key, "email", email, "error", err)
				return
			}
			sent.Add(1)
		}(lic)
	}
	wg.Wait()

	result := Result{Matched: len(expiring), Sent: int(sent.Load())}
	slog.Info("expiry sweep complete", "matched", result.Matched, "sent", result.Sent)
	return result, nil
}
