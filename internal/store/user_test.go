// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"moonui/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-create@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(email, "testpass123", "Test User", models.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Email != email {
		t.Errorf("email: got %q, want %q", user.Email, email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("role: got %q, want %q", user.Role, models.RoleUser)
	}
	if user.EmailVerifiedAt != nil {
		t.Error("expected unverified email for new user")
	}
	if user.TOTPEnabled {
		t.Error("expected totp_enabled=false for new user")
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password hash must be set and not plaintext")
	}
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-findbyemail@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	// Not found case.
	user, err := s.FindByEmail(email)
	if err != nil {
		t.Fatalf("FindByEmail (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created, err := s.Create(email, "pass", "Find Me", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user, err = s.FindByEmail(email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID != created.ID {
		t.Errorf("ID mismatch: got %s, want %s", user.ID, created.ID)
	}
}

func TestUserStoreCheckPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-checkpw@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(email, "correct-horse", "PW", models.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !s.CheckPassword(user, "correct-horse") {
		t.Error("expected correct password to verify")
	}
	if s.CheckPassword(user, "wrong-horse") {
		t.Error("expected wrong password to fail")
	}
}

func TestUserStoreUpdatePassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-updatepw@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(email, "old-password", "PW", models.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.UpdatePassword(user.ID, "new-password"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	updated, _ := s.FindByID(user.ID)
	if s.CheckPassword(updated, "old-password") {
		t.Error("old password still verifies after update")
	}
	if !s.CheckPassword(updated, "new-password") {
		t.Error("new password does not verify")
	}
}

func TestUserStoreMarkEmailVerified(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-verify@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(email, "pass", "Verify", models.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := s.MarkEmailVerified(user.ID, first); err != nil {
		t.Fatalf("MarkEmailVerified: %v", err)
	}

	verified, _ := s.FindByID(user.ID)
	if verified.EmailVerifiedAt == nil {
		t.Fatal("expected email_verified_at to be set")
	}

	// Second verification must not move the timestamp.
	if err := s.MarkEmailVerified(user.ID, time.Now()); err != nil {
		t.Fatalf("MarkEmailVerified (second): %v", err)
	}
	again, _ := s.FindByID(user.ID)
	if !again.EmailVerifiedAt.Equal(*verified.EmailVerifiedAt) {
		t.Error("re-verification overwrote the original timestamp")
	}
}

func TestUserStoreCountByRole(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email1 := "test-count-a@store-test.local"
	email2 := "test-count-b@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email1, email2) })

	before, err := s.CountByRole(models.RoleAdmin)
	if err != nil {
		t.Fatalf("CountByRole: %v", err)
	}

	s.Create(email1, "pass", "Admin A", models.RoleAdmin)
	s.Create(email2, "pass", "Admin B", models.RoleAdmin)

	after, err := s.CountByRole(models.RoleAdmin)
	if err != nil {
		t.Fatalf("CountByRole: %v", err)
	}
	if after-before != 2 {
		t.Errorf("admin count delta: got %d, want 2", after-before)
	}
}

func TestUserStoreTOTPLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-totp@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(email, "pass", "TOTP", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetTOTPSecret(user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	if err := s.EnableTOTP(user.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}

	enrolled, _ := s.FindByID(user.ID)
	if !enrolled.TOTPEnabled || enrolled.TOTPSecret == nil {
		t.Error("expected TOTP enabled with secret")
	}

	if err := s.ResetTOTP(user.ID); err != nil {
		t.Fatalf("ResetTOTP: %v", err)
	}
	reset, _ := s.FindByID(user.ID)
	if reset.TOTPEnabled || reset.TOTPSecret != nil {
		t.Error("expected TOTP cleared after reset")
	}
}
