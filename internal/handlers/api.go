// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"moonui/internal/licenseapi"
	"moonui/internal/models"
	"moonui/internal/notifier"
	"moonui/internal/notify"
	"moonui/internal/store"
)

// API groups the JSON endpoints consumed by the site frontend, the
// platform cron trigger, and external webhooks.
type API struct {
	cronSecret   string
	dev          bool
	contents     *store.ContentStore
	licenses     *store.LicenseStore
	transactions *store.TransactionStore
	users        *store.UserStore
	newsletter   *store.NewsletterStore
	discounts    *store.DiscountStore
	expiry       *notifier.Notifier
	licenseAPI   *licenseapi.Client
	telegram     *notify.Telegram
}

// NewAPI creates a new API handler group. dev relaxes the remote license
// check when no provider is configured.
func NewAPI(cronSecret string, dev bool, contents *store.ContentStore, licenses *store.LicenseStore, transactions *store.TransactionStore, users *store.UserStore, newsletter *store.NewsletterStore, discounts *store.DiscountStore, expiry *notifier.Notifier, licenseAPI *licenseapi.Client, telegram *notify.Telegram) *API {
	return &API{
		cronSecret:   cronSecret,
		dev:          dev,
		contents:     contents,
		licenses:     licenses,
		transactions: transactions,
		users:        users,
		newsletter:   newsletter,
		discounts:    discounts,
		expiry:       expiry,
		licenseAPI:   licenseAPI,
		telegram:     telegram,
	}
}

// CronCheckExpiry runs the license expiry sweep. It is triggered by the
// platform scheduler with a bearer secret; anything else gets 401.
func (a *API) CronCheckExpiry(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	// An unset secret must not compare equal to an empty bearer token.
	if a.cronSecret == "" || !ok || subtle.ConstantTimeCompare([]byte(token), []byte(a.cronSecret)) != 1 {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid cron secret.")
		return
	}

	result, err := a.expiry.Sweep(r.Context(), time.Now())
	if err != nil {
		slog.Error("cron expiry sweep failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sweep_failed", "Expiry sweep failed.")
		return
	}

	writeOK(w, "Expiry sweep complete.", result)
}

// SentryWebhook relays a Sentry error event to the Telegram channel.
// Malformed payloads get 400; relay failures are logged but still 200 so
// Sentry does not retry-storm us.
func (a *API) SentryWebhook(w http.ResponseWriter, r *http.Request) {
	var event notify.ErrorEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid webhook payload.")
		return
	}
	if event.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Webhook payload has no message.")
		return
	}

	if err := a.telegram.Send(r.Context(), notify.FormatError(event)); err != nil {
		slog.Error("telegram relay failed", "error", err)
	}

	writeOK(w, "Event relayed.", nil)
}

// IncrementStat bumps a counter (view, copy, download) on a published
// asset. Kind and stat come from the URL and are validated against the
// known enums before touching the database.
func (a *API) IncrementStat(w http.ResponseWriter, r *http.Request) {
	kind := models.ContentKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "bad_kind", "Unknown asset kind.")
		return
	}

	stat, ok := statFromParam(chi.URLParam(r, "stat"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_stat", "Unknown stat field.")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_id", "Invalid asset ID.")
		return
	}

	if err := a.contents.IncrementStat(id, kind, stat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "Asset not found.")
			return
		}
		slog.Error("stat increment failed", "id", id, "stat", stat, "error", err)
		writeError(w, http.StatusInternalServerError, "increment_failed", "Could not record the stat.")
		return
	}

	writeOK(w, "Recorded.", nil)
}

// statFromParam maps URL stat names to counter columns.
func statFromParam(name string) (models.StatField, bool) {
	switch name {
	case "view":
		return models.StatView, true
	case "copy":
		return models.StatCopy, true
	case "download":
		return models.StatDownload, true
	}
	return "", false
}

type activateRequest struct {
	Key   string `json:"key" validate:"required,min=8,max=120"`
	Email string `json:"email" validate:"required,email"`
}

// ActivateLicense validates a key with the provider and binds it to the
// account. The provider verdict wins: a locally known key the provider
// rejects stays inactive. In dev with no provider configured, local keys
// activate without the remote check.
func (a *API) ActivateLicense(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON payload.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "A license key and account email are required.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := a.users.FindByEmail(email)
	if err != nil {
		slog.Error("activation user lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "activation_failed", "Could not activate the license.")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "unknown_email", "No account exists for that email address.")
		return
	}
	if !user.IsVerified() {
		writeError(w, http.StatusForbidden, "email_unverified", "Verify your email address before activating a license.")
		return
	}

	verdict, err := a.licenseAPI.Validate(r.Context(), req.Key)
	switch {
	case errors.Is(err, licenseapi.ErrNotConfigured):
		if !a.dev {
			slog.Error("license provider not configured in production")
			writeError(w, http.StatusServiceUnavailable, "provider_unavailable", "License validation is temporarily unavailable.")
			return
		}
		// Dev fallback: accept any key the local database knows.
		verdict = nil
	case err != nil:
		slog.Error("license provider call failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "provider_unavailable", "License validation is temporarily unavailable.")
		return
	}

	if verdict != nil && !verdict.Valid {
		writeError(w, http.StatusUnprocessableEntity, "invalid_key", "That license key is not valid.")
		return
	}

	license, err := a.licenses.FindByKey(req.Key)
	if err != nil {
		slog.Error("license lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "activation_failed", "Could not activate the license.")
		return
	}

	var expiresAt *time.Time
	if verdict != nil && verdict.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, verdict.ExpiresAt); err == nil {
			expiresAt = &t
		}
	}

	if license == nil {
		// Provider-issued key not yet mirrored locally.
		if verdict == nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_key", "That license key is not valid.")
			return
		}
		license, err = a.licenses.Create(&models.License{
			Key:      req.Key,
			Status:   models.LicenseInactive,
			PlanType: planFromVerdict(verdict),
			Tier:     tierFromVerdict(verdict),
		})
		if err != nil {
			slog.Error("license mirror create failed", "error", err)
			writeError(w, http.StatusInternalServerError, "activation_failed", "Could not activate the license.")
			return
		}
	}

	if license.Status == models.LicenseDisabled {
		writeError(w, http.StatusUnprocessableEntity, "key_disabled", "That license key has been disabled.")
		return
	}
	if license.OwnerID != nil && *license.OwnerID != user.ID {
		writeError(w, http.StatusConflict, "key_taken", "That license key is already bound to another account.")
		return
	}

	if expiresAt == nil {
		expiresAt = license.ExpiresAt
	}

	if err := a.licenses.Activate(license.ID, user.ID, expiresAt); err != nil {
		slog.Error("license activate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "activation_failed", "Could not activate the license.")
		return
	}

	// Ledger entry. Amounts are settled by the payment provider; the
	// activation row anchors renewals and revenue reporting.
	meta, _ := json.Marshal(map[string]string{"source": "activation_api"})
	if _, err := a.transactions.Create(&models.LicenseTransaction{
		LicenseID: license.ID,
		UserID:    user.ID,
		Type:      models.TransactionActivation,
		Status:    models.TransactionSuccess,
		Metadata:  meta,
	}); err != nil {
		slog.Error("activation transaction record failed", "error", err)
	}

	writeOK(w, "License activated.", map[string]any{
		"key":        license.Key,
		"tier":       license.Tier,
		"plan_type":  license.PlanType,
		"expires_at": expiresAt,
	})
}

func planFromVerdict(v *licenseapi.Validation) models.PlanType {
	if v.PlanType == string(models.PlanOneTime) {
		return models.PlanOneTime
	}
	return models.PlanSubscribe
}

func tierFromVerdict(v *licenseapi.Validation) models.LicenseTier {
	if v.Tier == string(models.LicenseTierProPlus) {
		return models.LicenseTierProPlus
	}
	return models.LicenseTierPro
}

type newsletterRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NewsletterSubscribe opts an email address into the newsletter.
// Re-subscribing a previously unsubscribed address reactivates it.
func (a *API) NewsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON payload.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "A valid email address is required.")
		return
	}

	if _, err := a.newsletter.Subscribe(strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		slog.Error("newsletter subscribe failed", "error", err)
		writeError(w, http.StatusInternalServerError, "subscribe_failed", "Could not subscribe.")
		return
	}

	writeOK(w, "Subscribed.", nil)
}

// NewsletterUnsubscribe opts an email address out.
func (a *API) NewsletterUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON payload.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "A valid email address is required.")
		return
	}

	if err := a.newsletter.Unsubscribe(strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		slog.Error("newsletter unsubscribe failed", "error", err)
		writeError(w, http.StatusInternalServerError, "unsubscribe_failed", "Could not unsubscribe.")
		return
	}

	writeOK(w, "Unsubscribed.", nil)
}

// CheckDiscount resolves a discount code to its percentage. Unknown or
// inactive codes are a 404, not an error.
func (a *API) CheckDiscount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	discount, err := a.discounts.FindActiveByCode(code)
	if err != nil {
		slog.Error("discount lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup_failed", "Could not check the code.")
		return
	}
	if discount == nil {
		writeError(w, http.StatusNotFound, "unknown_code", "That discount code is not valid.")
		return
	}

	writeOK(w, "Code applied.", map[string]any{
		"code":    discount.Code,
		"percent": discount.Percent,
	})
}
