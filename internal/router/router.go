// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// MoonUI marketplace. It organizes routes into public API and admin
// dashboard groups with appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"moonui/internal/handlers"
	"moonui/internal/middleware"
	"moonui/internal/session"
	"moonui/web"
)

// Handlers bundles the handler groups the router wires up.
type Handlers struct {
	Admin  *handlers.Admin
	Auth   *handlers.Auth
	Public *handlers.Public
	API    *handlers.API
	OTP    *handlers.OTP
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Static assets for the admin dashboard.
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// SEO plumbing.
	r.Get("/robots.txt", h.Public.Robots)
	r.Get("/sitemap.xml", h.Public.Sitemap)

	// JSON API consumed by the site frontend and external callers.
	r.Route("/api", func(r chi.Router) {
		// OTP endpoints are the abuse magnet; rate-limit them per IP.
		otpLimiter := middleware.NewRateLimiter(10, time.Minute)
		r.Group(func(r chi.Router) {
			r.Use(otpLimiter.Middleware)
			r.Post("/otp/send", h.OTP.Send)
			r.Post("/otp/verify", h.OTP.Verify)
			r.Post("/otp/reset", h.OTP.Reset)
		})

		r.Get("/cron/check-expiry", h.API.CronCheckExpiry)
		r.Post("/webhooks/sentry", h.API.SentryWebhook)

		r.Post("/stats/{kind}/{id}/{stat}", h.API.IncrementStat)
		r.Post("/license/activate", h.API.ActivateLicense)

		r.Post("/newsletter/subscribe", h.API.NewsletterSubscribe)
		r.Post("/newsletter/unsubscribe", h.API.NewsletterUnsubscribe)
		r.Get("/discounts/{code}", h.API.CheckDiscount)

		// Published asset listings, detail, and archive downloads. The
		// param captures the whole plural segment ("components", "designs");
		// the handlers map it back to the kind. A suffix pattern like
		// "{kind}s" would stop at the first "s" and mangle "designs".
		r.Get("/{kind}", h.Public.Listing)
		r.Get("/{kind}/{slug}", h.Public.Detail)
		r.Get("/{kind}/{slug}/download", h.Public.Download)
	})

	// Admin dashboard — session auth, 2FA, CSRF.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Auth pages — accessible without a session. Login submits share a
		// per-IP limiter with the 2FA code form.
		loginLimiter := middleware.NewRateLimiter(10, time.Minute)
		r.Get("/login", h.Auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", h.Auth.LoginSubmit)
		r.Post("/logout", h.Auth.Logout)

		// Invite acceptance — the invitee has no session yet.
		r.Get("/invites/accept", h.Auth.InviteAcceptPage)
		r.With(loginLimiter.Middleware).Post("/invites/accept", h.Auth.InviteAcceptSubmit)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", h.Auth.TwoFASetupPage)
			r.With(loginLimiter.Middleware).Post("/2fa/setup", h.Auth.TwoFAVerifySubmit)
			r.Get("/2fa/verify", h.Auth.TwoFAVerifyPage)
			r.With(loginLimiter.Middleware).Post("/2fa/verify", h.Auth.TwoFAVerifySubmit)
		})

		// Authenticated + 2FA-verified dashboard area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)

			r.Get("/", h.Admin.Dashboard)
			r.Get("/dashboard", h.Admin.Dashboard)

			r.Post("/uploads", h.Admin.PreviewUpload)

			// Assets (components, templates, gradients, designs).
			r.Route("/contents", func(r chi.Router) {
				r.Get("/", h.Admin.ContentsList)
				r.Get("/new", h.Admin.ContentNew)
				r.Post("/", h.Admin.ContentCreate)
				r.Get("/{id}", h.Admin.ContentEdit)
				r.Post("/{id}", h.Admin.ContentUpdate)
				r.Delete("/{id}", h.Admin.ContentDelete)
			})

			// Categories
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Admin.CategoriesList)
				r.Get("/new", h.Admin.CategoryNew)
				r.Post("/", h.Admin.CategoryCreate)
				r.Get("/{id}", h.Admin.CategoryEdit)
				r.Post("/{id}", h.Admin.CategoryUpdate)
				r.Delete("/{id}", h.Admin.CategoryDelete)
			})

			// Licenses
			r.Route("/licenses", func(r chi.Router) {
				r.Get("/", h.Admin.LicensesList)
				r.Get("/new", h.Admin.LicenseNew)
				r.Post("/", h.Admin.LicenseCreate)
				r.Get("/{id}", h.Admin.LicenseEdit)
				r.Post("/{id}", h.Admin.LicenseUpdate)
				r.Delete("/{id}", h.Admin.LicenseDelete)
			})

			r.Get("/transactions", h.Admin.TransactionsList)
			r.Get("/transactions/{id}", h.Admin.TransactionDetail)

			// Discounts
			r.Route("/discounts", func(r chi.Router) {
				r.Get("/", h.Admin.DiscountsList)
				r.Post("/", h.Admin.DiscountCreate)
				r.Post("/{id}/toggle", h.Admin.DiscountToggle)
				r.Delete("/{id}", h.Admin.DiscountDelete)
			})

			r.Get("/newsletter", h.Admin.NewsletterList)

			// Account and invite management — superadmin only.
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireSuperAdmin)
				r.Get("/", h.Admin.UsersList)
				r.Post("/{id}/role", h.Admin.UserUpdateRole)
				r.Delete("/{id}", h.Admin.UserDelete)
			})
			r.Route("/invites", func(r chi.Router) {
				r.Use(middleware.RequireSuperAdmin)
				r.Get("/", h.Admin.InvitesList)
				r.Post("/", h.Admin.InviteCreate)
				r.Delete("/{id}", h.Admin.InviteDelete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
