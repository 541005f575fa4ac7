// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"moonui/internal/cache"
	"moonui/internal/models"
	"moonui/internal/render"
	"moonui/internal/store"
)

func newTestAdmin(t *testing.T) (*Admin, *store.UserStore, *store.ContentStore) {
	t.Helper()

	db := testDB(t)
	valkey := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	users := store.NewUserStore(db)
	contents := store.NewContentStore(db)
	a := NewAdmin(
		renderer,
		contents,
		store.NewCategoryStore(db),
		store.NewLicenseStore(db),
		store.NewTransactionStore(db),
		users,
		store.NewInviteStore(db),
		store.NewDiscountStore(db),
		store.NewNewsletterStore(db),
		cache.NewPageCache(valkey, time.Minute),
		nil,
		&inviteMailRecorder{},
		"https://moonui.test",
	)
	return a, users, contents
}

// inviteMailRecorder captures invite emails instead of sending them.
type inviteMailRecorder struct {
	email, role, link string
}

func (m *inviteMailRecorder) SendInvite(_ context.Context, email, role, link string) error {
	m.email, m.role, m.link = email, role, link
	return nil
}

// formRequest builds a POST with urlencoded form values.
func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestDashboardRenders(t *testing.T) {
	a, users, contents := newTestAdmin(t)

	admin := testAdminUser(t, users, models.RoleAdmin)
	testContent(t, contents, admin.ID, models.TierFree, models.ContentStatusPublished)

	req := withSession(httptest.NewRequest(http.MethodGet, "/admin", nil), admin)
	rr := httptest.NewRecorder()
	a.Dashboard(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Dashboard") {
		t.Error("expected dashboard title in page")
	}
	// Plain admins never see the revenue block.
	if strings.Contains(body, "Revenue this month") {
		t.Error("revenue split must be superadmin-only")
	}
}

func TestDashboardRevenueForSuperadmin(t *testing.T) {
	a, users, _ := newTestAdmin(t)

	boss := testAdminUser(t, users, models.RoleSuperAdmin)
	req := withSession(httptest.NewRequest(http.MethodGet, "/admin", nil), boss)
	rr := httptest.NewRecorder()
	a.Dashboard(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Revenue this month") {
		t.Error("expected revenue block for superadmin")
	}
}

func TestContentCreate(t *testing.T) {
	a, users, contents := newTestAdmin(t)
	admin := testAdminUser(t, users, models.RoleAdmin)

	title := "Frosted Card " + uuid.NewString()[:8]
	req := withSession(formRequest("/admin/contents", url.Values{
		"kind":   {"component"},
		"title":  {title},
		"body":   {"<div class=\"card\"></div>"},
		"tier":   {"pro"},
		"status": {"published"},
	}), admin)

	rr := httptest.NewRecorder()
	a.ContentCreate(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303 (body %s)", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/admin/contents?kind=component" {
		t.Errorf("redirect: got %q", loc)
	}

	listed, err := contents.ListByKind(models.KindComponent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var created *models.Content
	for i := range listed {
		if listed[i].Title == title {
			created = &listed[i]
		}
	}
	if created == nil {
		t.Fatal("created asset not found in listing")
	}
	t.Cleanup(func() { contents.Delete(created.ID) })

	if created.Tier != models.TierPro || created.Status != models.ContentStatusPublished {
		t.Errorf("tier/status: got %s/%s", created.Tier, created.Status)
	}
	if created.OwnerID != admin.ID {
		t.Error("owner should be the session user")
	}
	if created.Slug == "" || strings.Contains(created.Slug, " ") {
		t.Errorf("slug: got %q", created.Slug)
	}
}

func TestContentCreateRejectsBadKind(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	admin := testAdminUser(t, users, models.RoleAdmin)

	req := withSession(formRequest("/admin/contents", url.Values{
		"kind":  {"widget"},
		"title": {"Nope"},
		"body":  {"x"},
	}), admin)

	rr := httptest.NewRecorder()
	a.ContentCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestContentCreateEmptyTitleRerendersForm(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	admin := testAdminUser(t, users, models.RoleAdmin)

	req := withSession(formRequest("/admin/contents", url.Values{
		"kind":  {"component"},
		"title": {"   "},
		"body":  {"x"},
	}), admin)

	rr := httptest.NewRecorder()
	a.ContentCreate(rr, req)

	// Validation failures re-render the form with a flash, not a redirect.
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "" {
		t.Errorf("unexpected redirect to %q", loc)
	}
}

func TestContentDeleteInvalidatesListing(t *testing.T) {
	a, users, contents := newTestAdmin(t)
	admin := testAdminUser(t, users, models.RoleAdmin)
	c := testContent(t, contents, admin.ID, models.TierFree, models.ContentStatusPublished)

	req := chiRequest(withSession(
		httptest.NewRequest(http.MethodDelete, "/admin/contents/"+c.ID.String(), nil), admin),
		map[string]string{"id": c.ID.String()})
	rr := httptest.NewRecorder()
	a.ContentDelete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}

	gone, err := contents.FindByID(c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if gone != nil {
		t.Error("asset should be deleted")
	}
}

func TestCategoryCreateAndSelfParentGuard(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	db := testDB(t)
	categories := store.NewCategoryStore(db)
	admin := testAdminUser(t, users, models.RoleAdmin)

	name := "Buttons " + uuid.NewString()[:8]
	req := withSession(formRequest("/admin/categories", url.Values{
		"kind": {"component"},
		"name": {name},
	}), admin)
	rr := httptest.NewRecorder()
	a.CategoryCreate(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("create status: got %d (body %s)", rr.Code, rr.Body.String())
	}

	all, err := categories.ListByKind(models.KindComponent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var created *models.Category
	for i := range all {
		if all[i].Name == name {
			created = &all[i]
		}
	}
	if created == nil {
		t.Fatal("category not found after create")
	}
	t.Cleanup(func() { categories.Delete(created.ID) })

	// A category cannot be its own parent.
	req = chiRequest(withSession(formRequest("/admin/categories/"+created.ID.String(), url.Values{
		"name":      {name},
		"parent_id": {created.ID.String()},
	}), admin), map[string]string{"id": created.ID.String()})
	rr = httptest.NewRecorder()
	a.CategoryUpdate(rr, req)

	if rr.Code == http.StatusSeeOther {
		t.Error("self-parent update must not succeed")
	}
}

func TestCategoryUpdateRejectsDescendantParent(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	db := testDB(t)
	categories := store.NewCategoryStore(db)
	admin := testAdminUser(t, users, models.RoleAdmin)

	mkCat := func(name string, parent *uuid.UUID) *models.Category {
		c, err := categories.Create(&models.Category{
			Kind:     models.KindComponent,
			Name:     name,
			Slug:     "cycle-" + uuid.NewString()[:8],
			ParentID: parent,
			OwnerID:  admin.ID,
		})
		if err != nil {
			t.Fatalf("create category %s: %v", name, err)
		}
		t.Cleanup(func() { categories.Delete(c.ID) })
		return c
	}

	// root -> child -> grandchild
	root := mkCat("Forms", nil)
	child := mkCat("Inputs", &root.ID)
	grandchild := mkCat("Selects", &child.ID)

	// Re-parenting the root onto its own grandchild would close a loop.
	req := chiRequest(withSession(formRequest("/admin/categories/"+root.ID.String(), url.Values{
		"name":      {"Forms"},
		"parent_id": {grandchild.ID.String()},
	}), admin), map[string]string{"id": root.ID.String()})
	rr := httptest.NewRecorder()
	a.CategoryUpdate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}

	reloaded, err := categories.FindByID(root.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload root: %v", err)
	}
	if reloaded.ParentID != nil {
		t.Error("root parent must stay unset after the rejected update")
	}
}

func TestUserRoleSelfDemotionGuard(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	boss := testAdminUser(t, users, models.RoleSuperAdmin)

	req := chiRequest(withSession(formRequest("/admin/users/"+boss.ID.String()+"/role", url.Values{
		"role": {"admin"},
	}), boss), map[string]string{"id": boss.ID.String()})
	rr := httptest.NewRecorder()
	a.UserUpdateRole(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}

	reloaded, err := users.FindByID(boss.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Role != models.RoleSuperAdmin {
		t.Error("role must be unchanged after rejected self-demotion")
	}
}

func TestUserRoleUpdate(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	boss := testAdminUser(t, users, models.RoleSuperAdmin)
	other := testAdminUser(t, users, models.RoleUser)

	req := chiRequest(withSession(formRequest("/admin/users/"+other.ID.String()+"/role", url.Values{
		"role": {"admin"},
	}), boss), map[string]string{"id": other.ID.String()})
	rr := httptest.NewRecorder()
	a.UserUpdateRole(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rr.Code)
	}
	reloaded, _ := users.FindByID(other.ID)
	if reloaded == nil || reloaded.Role != models.RoleAdmin {
		t.Error("expected role promoted to admin")
	}
}

func TestUserSelfDeleteGuard(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	boss := testAdminUser(t, users, models.RoleSuperAdmin)

	req := chiRequest(withSession(
		httptest.NewRequest(http.MethodDelete, "/admin/users/"+boss.ID.String(), nil), boss),
		map[string]string{"id": boss.ID.String()})
	rr := httptest.NewRecorder()
	a.UserDelete(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if u, _ := users.FindByID(boss.ID); u == nil {
		t.Error("account must survive a rejected self-delete")
	}
}

func TestPreviewUploadWithoutStorage(t *testing.T) {
	a := NewAdmin(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, "")

	rr := httptest.NewRecorder()
	a.PreviewUpload(rr, httptest.NewRequest(http.MethodPost, "/admin/uploads", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Code != "no_storage" {
		t.Errorf("code: got %q, want no_storage", env.Code)
	}
}

func TestLicenseEditShowsOwnerLicenses(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	db := testDB(t)
	licenses := store.NewLicenseStore(db)
	owner := testAdminUser(t, users, models.RoleUser)

	mkLicense := func(key string) *models.License {
		l, err := licenses.Create(&models.License{
			Key:      key,
			Status:   models.LicenseActive,
			PlanType: models.PlanOneTime,
			Tier:     models.LicenseTierPro,
			OwnerID:  &owner.ID,
		})
		if err != nil {
			t.Fatalf("create license: %v", err)
		}
		t.Cleanup(func() { licenses.Delete(l.ID) })
		return l
	}

	edited := mkLicense("MU-EDIT-" + uuid.NewString()[:8])
	sibling := mkLicense("MU-SIBL-" + uuid.NewString()[:8])

	req := chiRequest(withSession(httptest.NewRequest(http.MethodGet,
		"/admin/licenses/"+edited.ID.String(), nil), owner),
		map[string]string{"id": edited.ID.String()})
	rr := httptest.NewRecorder()
	a.LicenseEdit(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), sibling.Key) {
		t.Error("edit page should list the owner's other licenses")
	}
}

func TestTransactionDetail(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	db := testDB(t)
	licenses := store.NewLicenseStore(db)
	transactions := store.NewTransactionStore(db)
	owner := testAdminUser(t, users, models.RoleUser)

	key := "MU-TXN-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		db.Exec("DELETE FROM license_transactions WHERE license_id IN (SELECT id FROM licenses WHERE key = $1)", key)
		db.Exec("DELETE FROM licenses WHERE key = $1", key)
	})

	lic, err := licenses.Create(&models.License{
		Key:      key,
		Status:   models.LicenseActive,
		PlanType: models.PlanSubscribe,
		Tier:     models.LicenseTierPro,
		OwnerID:  &owner.ID,
	})
	if err != nil {
		t.Fatalf("create license: %v", err)
	}

	tx, err := transactions.Create(&models.LicenseTransaction{
		LicenseID: lic.ID,
		UserID:    owner.ID,
		Type:      models.TransactionActivation,
		Amount:    49.99,
		Status:    models.TransactionSuccess,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	detail := func(id string) *httptest.ResponseRecorder {
		req := chiRequest(withSession(httptest.NewRequest(http.MethodGet,
			"/admin/transactions/"+id, nil), owner), map[string]string{"id": id})
		rr := httptest.NewRecorder()
		a.TransactionDetail(rr, req)
		return rr
	}

	rr := detail(tx.ID.String())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "49.99") || !strings.Contains(body, lic.ID.String()) {
		t.Error("detail page should show the amount and license")
	}

	if rr := detail("not-a-uuid"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rr.Code)
	}
	if rr := detail(uuid.NewString()); rr.Code != http.StatusNotFound {
		t.Errorf("missing: got %d, want 404", rr.Code)
	}
}

func TestInviteCreateSendsAcceptLink(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	db := testDB(t)
	invites := store.NewInviteStore(db)
	boss := testAdminUser(t, users, models.RoleSuperAdmin)

	email := "invitee-" + uuid.NewString()[:8] + "@test.local"
	rr := httptest.NewRecorder()
	a.InviteCreate(rr, withSession(formRequest("/admin/invites", url.Values{
		"email": {email},
		"role":  {"admin"},
	}), boss))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
	}

	rec := a.mail.(*inviteMailRecorder)
	if rec.email != email || rec.role != "admin" {
		t.Errorf("mailed to %q as %q, want %q as admin", rec.email, rec.role, email)
	}

	const prefix = "https://moonui.test/admin/invites/accept?token="
	if !strings.HasPrefix(rec.link, prefix) {
		t.Fatalf("link: got %q, want %s...", rec.link, prefix)
	}

	inv, err := invites.FindByToken(strings.TrimPrefix(rec.link, prefix))
	if err != nil || inv == nil {
		t.Fatalf("mailed token does not resolve to an invite: %v", err)
	}
	t.Cleanup(func() { invites.Delete(inv.ID) })
	if inv.Status != models.InvitePending {
		t.Errorf("status: got %q, want pending", inv.Status)
	}
}

func TestInviteCreateValidation(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	boss := testAdminUser(t, users, models.RoleSuperAdmin)

	cases := []struct {
		name   string
		values url.Values
	}{
		{"missing email", url.Values{"role": {"admin"}}},
		{"bad role", url.Values{"email": {"a@b.com"}, "role": {"user"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			a.InviteCreate(rr, withSession(formRequest("/admin/invites", tc.values), boss))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rr.Code)
			}
		})
	}
}

func TestDiscountCreateValidation(t *testing.T) {
	a, users, _ := newTestAdmin(t)
	admin := testAdminUser(t, users, models.RoleAdmin)

	cases := []struct {
		name   string
		values url.Values
	}{
		{"missing code", url.Values{"percent": {"10"}}},
		{"zero percent", url.Values{"code": {"SAVE"}, "percent": {"0"}}},
		{"over 100", url.Values{"code": {"SAVE"}, "percent": {"101"}}},
		{"non-numeric", url.Values{"code": {"SAVE"}, "percent": {"ten"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			a.DiscountCreate(rr, withSession(formRequest("/admin/discounts", tc.values), admin))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rr.Code)
			}
		})
	}
}
