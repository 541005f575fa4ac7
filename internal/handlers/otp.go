// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"moonui/internal/otp"
	"moonui/internal/store"
)

// OTP exposes the email verification and password reset code flow as JSON
// endpoints consumed by the site frontend.
type OTP struct {
	service   *otp.Service
	userStore *store.UserStore
}

// NewOTP creates a new OTP handler group.
func NewOTP(service *otp.Service, userStore *store.UserStore) *OTP {
	return &OTP{service: service, userStore: userStore}
}

type sendOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required,oneof=reset verify"`
	Ref     string `json:"ref,omitempty" validate:"omitempty,max=500"`
}

// Send generates a code, caches it, and emails it together with a signed
// verification link. Responds identically for delivery problems and only
// distinguishes unknown accounts, which the frontend treats as a form error.
func (o *OTP) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON payload.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "Email and purpose are required.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	err := o.service.Send(r.Context(), otp.Purpose(req.Purpose), email, req.Ref)
	switch {
	case errors.Is(err, otp.ErrUnknownEmail):
		writeError(w, http.StatusNotFound, "unknown_email", "No account exists for that email address.")
		return
	case err != nil:
		slog.Error("otp send failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "send_failed", "Could not send the verification code.")
		return
	}

	writeOK(w, "Verification code sent.", nil)
}

type verifyOTPRequest struct {
	Code  string `json:"otp" validate:"required,len=6,numeric"`
	Token string `json:"signature" validate:"required"`
}

// Verify checks a submitted code against the signed token and the cached
// code. Each failure mode gets a distinct code so the frontend can tell a
// mistyped digit from an expired link.
func (o *OTP) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON payload.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "A 6-digit code and token are required.")
		return
	}

	claim, err := o.service.Verify(r.Context(), req.Code, req.Token)
	switch {
	case errors.Is(err, otp.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "invalid_signature", "The verification link is not valid.")
		return
	case errors.Is(err, otp.ErrExpired):
		writeError(w, http.StatusGone, "expired", "The verification code has expired. Request a new one.")
		return
	case errors.Is(err, otp.ErrIncorrectCode):
		writeError(w, http.StatusUnauthorized, "incorrect_code", "Incorrect code. Please try again.")
		return
	case err != nil:
		slog.Error("otp verify failed", "error", err)
		writeError(w, http.StatusInternalServerError, "verify_failed", "Could not verify the code.")
		return
	}

	// Side effects by purpose: email verification marks the account.
	// Password resets go through Reset instead, which consumes the code
	// and sets the new password in one step.
	if claim.Purpose == otp.PurposeVerify {
		user, err := o.userStore.FindByEmail(claim.Email)
		if err == nil && user != nil {
			if err := o.userStore.MarkEmailVerified(user.ID, time.Now()); err != nil {
				slog.Error("mark email verified failed", "email", claim.Email, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Code:    "ok",
		Message: "Code verified.",
		Data:    map[string]any{"email": claim.Email, "purpose": claim.Purpose},
		URL:     claim.Ref,
	})
}

type resetPasswordRequest struct {
	Code     string `json:"otp" validate:"required,len=6,numeric"`
	Token    string `json:"signature" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Reset completes a password reset: it verifies the code against the signed
// token, consuming it, and stores the new password. Only reset-purpose
// claims are accepted here; a verification claim cannot change a password.
func (o *OTP) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON payload.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "A 6-digit code, token, and password of at least 8 characters are required.")
		return
	}

	claim, err := o.service.Verify(r.Context(), req.Code, req.Token)
	switch {
	case errors.Is(err, otp.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "invalid_signature", "The reset link is not valid.")
		return
	case errors.Is(err, otp.ErrExpired):
		writeError(w, http.StatusGone, "expired", "The reset code has expired. Request a new one.")
		return
	case errors.Is(err, otp.ErrIncorrectCode):
		writeError(w, http.StatusUnauthorized, "incorrect_code", "Incorrect code. Please try again.")
		return
	case err != nil:
		slog.Error("otp reset verify failed", "error", err)
		writeError(w, http.StatusInternalServerError, "verify_failed", "Could not verify the code.")
		return
	}

	if claim.Purpose != otp.PurposeReset {
		writeError(w, http.StatusBadRequest, "bad_purpose", "This code was not issued for a password reset.")
		return
	}

	user, err := o.userStore.FindByEmail(claim.Email)
	if err != nil || user == nil {
		slog.Error("otp reset lookup failed", "email", claim.Email, "error", err)
		writeError(w, http.StatusNotFound, "unknown_email", "No account exists for that email address.")
		return
	}

	if err := o.userStore.UpdatePassword(user.ID, req.Password); err != nil {
		slog.Error("otp reset update failed", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "reset_failed", "Could not update the password.")
		return
	}

	slog.Info("password reset", "user", user.ID)
	writeOK(w, "Password updated. You can sign in now.", nil)
}
