package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"moonui/internal/models"
)

func TestSplitRevenue(t *testing.T) {
	split := SplitRevenue(1000, 2)
	if split.SuperAdminShare != 300 {
		t.Errorf("superadmin share: got %v, want 300", split.SuperAdminShare)
	}
	if split.AdminShareTotal != 700 {
		t.Errorf("admin pool share: got %v, want 700", split.AdminShareTotal)
	}
	if split.AdminSharePerPerson != 350 {
		t.Errorf("per-admin share: got %v, want 350", split.AdminSharePerPerson)
	}
}

func TestSplitRevenueNoAdmins(t *testing.T) {
	split := SplitRevenue(1000, 0)
	if split.AdminSharePerPerson != 0 {
		t.Errorf("per-admin share with zero admins: got %v, want 0", split.AdminSharePerPerson)
	}
	if split.SuperAdminShare != 300 {
		t.Errorf("superadmin share: got %v, want 300", split.SuperAdminShare)
	}
}

func TestSplitRevenueZeroTotal(t *testing.T) {
	split := SplitRevenue(0, 3)
	if split.SuperAdminShare != 0 || split.AdminShareTotal != 0 || split.AdminSharePerPerson != 0 {
		t.Errorf("expected all-zero split, got %+v", split)
	}
}

func TestTransactionStoreSumSuccessfulForMonth(t *testing.T) {
	db := testDB(t)
	licenses := NewLicenseStore(db)
	transactions := NewTransactionStore(db)
	ownerID := testOwner(t, db)

	key := "MUI-" + uuid.NewString()
	t.Cleanup(func() { cleanLicenses(t, db, key) })

	lic, err := licenses.Create(&models.License{
		Key:      key,
		Status:   models.LicenseActive,
		PlanType: models.PlanOneTime,
		Tier:     models.LicenseTierPro,
		OwnerID:  &ownerID,
	})
	if err != nil {
		t.Fatalf("create license: %v", err)
	}

	before, err := transactions.SumSuccessfulForMonth(time.Now())
	if err != nil {
		t.Fatalf("SumSuccessfulForMonth: %v", err)
	}

	mk := func(amount float64, status models.TransactionStatus) {
		t.Helper()
		_, err := transactions.Create(&models.LicenseTransaction{
			LicenseID: lic.ID,
			UserID:    ownerID,
			Type:      models.TransactionActivation,
			Amount:    amount,
			Status:    status,
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	mk(49.99, models.TransactionSuccess)
	mk(100.01, models.TransactionSuccess)
	mk(500, models.TransactionPending) // not counted
	mk(500, models.TransactionFailed)  // not counted

	after, err := transactions.SumSuccessfulForMonth(time.Now())
	if err != nil {
		t.Fatalf("SumSuccessfulForMonth: %v", err)
	}

	if diff := after - before; diff < 149.99 || diff > 150.01 {
		t.Errorf("monthly sum delta: got %v, want 150.00", diff)
	}
}

func TestTransactionStoreUpdateStatus(t *testing.T) {
	db := testDB(t)
	licenses := NewLicenseStore(db)
	transactions := NewTransactionStore(db)
	ownerID := testOwner(t, db)

	key := "MUI-" + uuid.NewString()
	t.Cleanup(func() { cleanLicenses(t, db, key) })

	lic, err := licenses.Create(&models.License{
		Key:      key,
		Status:   models.LicenseActive,
		PlanType: models.PlanSubscribe,
		Tier:     models.LicenseTierPro,
		OwnerID:  &ownerID,
	})
	if err != nil {
		t.Fatalf("create license: %v", err)
	}

	tx, err := transactions.Create(&models.LicenseTransaction{
		LicenseID: lic.ID,
		UserID:    ownerID,
		Type:      models.TransactionRenewal,
		Amount:    19.99,
		Status:    models.TransactionPending,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := transactions.UpdateStatus(tx.ID, models.TransactionSuccess); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	found, err := transactions.FindByID(tx.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.Status != models.TransactionSuccess {
		t.Errorf("status: got %q, want success", found.Status)
	}
}
