package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default superadmin user and a starter category per asset
// kind if no users exist. The superadmin will be prompted to set up 2FA
// on first dashboard login (totp_enabled = false).
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default superadmin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, "admin@moonui.local", string(hash), "Admin", "superadmin", false).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert superadmin: %w", err)
	}

	// One starter category per asset kind.
	for _, kind := range []string{"component", "template", "gradient", "design"} {
		_, err = db.Exec(`
			INSERT INTO categories (kind, name, slug, owner_id)
			VALUES ($1, $2, $3, $4)
		`, kind, "General", "general", adminID)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", kind, err)
		}
	}

	slog.Info("database seeded with default superadmin user",
		"email", "admin@moonui.local",
		"password", "admin",
	)

	return nil
}
