// Package main is the entry point for the MoonUI marketplace server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moonui/internal/cache"
	"moonui/internal/config"
	"moonui/internal/database"
	"moonui/internal/handlers"
	"moonui/internal/licenseapi"
	"moonui/internal/mailer"
	"moonui/internal/notifier"
	"moonui/internal/notify"
	"moonui/internal/otp"
	"moonui/internal/render"
	"moonui/internal/router"
	"moonui/internal/session"
	"moonui/internal/storage"
	"moonui/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL and run pending migrations.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, OTP codes, cached listings).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Data stores.
	userStore := store.NewUserStore(db)
	contentStore := store.NewContentStore(db)
	categoryStore := store.NewCategoryStore(db)
	licenseStore := store.NewLicenseStore(db)
	transactionStore := store.NewTransactionStore(db)
	inviteStore := store.NewInviteStore(db)
	discountStore := store.NewDiscountStore(db)
	newsletterStore := store.NewNewsletterStore(db)

	// S3-compatible object storage (optional — downloads degrade without it).
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3BucketPublic, cfg.S3BucketPrivate, cfg.S3PublicDomain,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured — archive downloads disabled")
	}

	// Outbound email (OTP codes, expiry warnings, dashboard invites).
	mail, err := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	if err != nil {
		slog.Error("failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	// Telegram relay for Sentry error webhooks.
	telegram := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)

	// Third-party license validation API.
	licenseAPI := licenseapi.New(cfg.LicenseAPIURL, cfg.LicenseAPIKey)

	// OTP issuance: Valkey-cached codes plus HMAC-signed email links.
	otpService := otp.NewService(
		otp.NewSigner(cfg.OTPSecret),
		cache.NewOTPStore(valkeyClient, cache.DefaultOTPTTL),
		userStore,
		mail,
		cfg.BaseURL,
		cache.DefaultOTPTTL,
	)

	// License expiry sweep: exposed via the cron API endpoint and,
	// when a schedule is configured, run in-process as well.
	expiryNotifier := notifier.New(licenseStore, mail)
	if cfg.CronSchedule != "" {
		scheduler, err := notifier.StartScheduler(cfg.CronSchedule, expiryNotifier)
		if err != nil {
			slog.Error("failed to start expiry scheduler", "schedule", cfg.CronSchedule, "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
		slog.Info("expiry scheduler started", "schedule", cfg.CronSchedule)
	}

	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// Handler groups.
	h := router.Handlers{
		Admin: handlers.NewAdmin(renderer, contentStore, categoryStore, licenseStore,
			transactionStore, userStore, inviteStore, discountStore, newsletterStore,
			pageCache, storageClient, mail, cfg.BaseURL),
		Auth:   handlers.NewAuth(renderer, sessionStore, userStore, inviteStore),
		Public: handlers.NewPublic(contentStore, categoryStore, licenseStore, pageCache, storageClient, cfg.BaseURL),
		API: handlers.NewAPI(cfg.CronSecret, cfg.IsDev(), contentStore, licenseStore,
			transactionStore, userStore, newsletterStore, discountStore,
			expiryNotifier, licenseAPI, telegram),
		OTP: handlers.NewOTP(otpService, userStore),
	}

	r := router.New(sessionStore, h)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
