// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"moonui/internal/middleware"
	"moonui/internal/models"
	"moonui/internal/render"
	"moonui/internal/session"
	"moonui/internal/store"
)

// totpIssuer is the issuer name shown in authenticator apps.
const totpIssuer = "MoonUI"

// Auth groups all authentication-related HTTP handlers for the admin panel.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	userStore *store.UserStore
	invites   *store.InviteStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore, invites *store.InviteStore) *Auth {
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		userStore: userStore,
		invites:   invites,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in with 2FA complete, redirect to dashboard.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
	})
}

// LoginSubmit processes the login form. Only admins and superadmins get
// panel sessions; regular accounts authenticate through the site API.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.loginError(w, r, "An unexpected error occurred.")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) || !user.IsAdmin() {
		a.loginError(w, r, "Invalid email or password.")
		return
	}

	// Create a session. TwoFADone starts as false — user must complete 2FA.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
	}
}

func (a *Auth) loginError(w http.ResponseWriter, r *http.Request, msg string) {
	a.renderer.Page(w, r, "login", &render.PageData{
		Title:   "Sign In",
		Flashes: []render.Flash{{Type: "error", Message: msg}},
	})
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": key.Secret(),
		},
	})
}

// TwoFAVerifyPage renders the 2FA code entry form (for users who already
// have 2FA set up).
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
// On first-time setup the submitted code also enables TOTP for the account.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	code := r.FormValue("code")

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	if !totp.Validate(code, *user.TOTPSecret) {
		if !user.TOTPEnabled {
			// Re-generate the QR code for the setup page.
			qrPNG, _ := qrcode.Encode(
				fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s", totpIssuer, user.Email, *user.TOTPSecret, totpIssuer),
				qrcode.Medium, 256,
			)
			a.renderer.Page(w, r, "2fa_setup", &render.PageData{
				Title:   "Set Up Two-Factor Authentication",
				Flashes: []render.Flash{{Type: "error", Message: "Invalid code. Please try again."}},
				Data: map[string]any{
					"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
					"Secret": *user.TOTPSecret,
				},
			})
			return
		}

		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title:   "Two-Factor Authentication",
			Flashes: []render.Flash{{Type: "error", Message: "Invalid code. Please try again."}},
		})
		return
	}

	// If this is the first-time setup, enable TOTP in the database.
	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// InviteAcceptPage renders the signup form behind an emailed invite token.
func (a *Auth) InviteAcceptPage(w http.ResponseWriter, r *http.Request) {
	inv, msg := a.usableInvite(r.URL.Query().Get("token"))
	if inv == nil {
		a.invitePage(w, r, nil, msg)
		return
	}

	a.invitePage(w, r, map[string]any{
		"Token": inv.Token,
		"Email": inv.Email,
	}, "")
}

// InviteAcceptSubmit creates the invited account and consumes the invite.
func (a *Auth) InviteAcceptSubmit(w http.ResponseWriter, r *http.Request) {
	inv, msg := a.usableInvite(r.FormValue("token"))
	if inv == nil {
		a.invitePage(w, r, nil, msg)
		return
	}

	form := map[string]any{"Token": inv.Token, "Email": inv.Email}

	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	switch {
	case displayName == "":
		a.invitePage(w, r, form, "Display name is required.")
		return
	case len(password) < 8:
		a.invitePage(w, r, form, "Password must be at least 8 characters.")
		return
	}

	if existing, err := a.userStore.FindByEmail(inv.Email); err != nil {
		slog.Error("invite accept lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	} else if existing != nil {
		a.invitePage(w, r, nil, "An account with this email already exists. Sign in instead.")
		return
	}

	user, err := a.userStore.Create(inv.Email, password, displayName, inv.Role)
	if err != nil {
		slog.Error("invite accept create failed", "email", inv.Email, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.invites.MarkAccepted(inv.ID); err != nil {
		slog.Error("invite mark accepted failed", "id", inv.ID, "error", err)
	}

	slog.Info("invite accepted", "user", user.ID, "role", user.Role)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// usableInvite resolves a token to a pending, unexpired invite. The second
// return value carries the user-facing message when the invite is nil.
func (a *Auth) usableInvite(token string) (*models.Invite, string) {
	if token == "" {
		return nil, "This invite link is missing its token."
	}
	inv, err := a.invites.FindByToken(token)
	if err != nil {
		slog.Error("invite lookup failed", "error", err)
		return nil, "An unexpected error occurred."
	}
	if inv == nil || !inv.IsUsable() {
		return nil, "This invite is invalid, expired, or already used."
	}
	return inv, ""
}

func (a *Auth) invitePage(w http.ResponseWriter, r *http.Request, form map[string]any, errMsg string) {
	data := &render.PageData{Title: "Accept Invite", Data: form}
	if errMsg != "" {
		data.Flashes = []render.Flash{{Type: "error", Message: errMsg}}
	}
	a.renderer.Page(w, r, "invite_accept", data)
}
