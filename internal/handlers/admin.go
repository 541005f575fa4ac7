// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"moonui/internal/cache"
	"moonui/internal/middleware"
	"moonui/internal/models"
	"moonui/internal/render"
	"moonui/internal/slug"
	"moonui/internal/storage"
	"moonui/internal/store"
)

// inviteTTL is how long a dashboard invite stays usable.
const inviteTTL = 7 * 24 * time.Hour

// InviteMailer delivers dashboard invitation links.
type InviteMailer interface {
	SendInvite(ctx context.Context, email, role, link string) error
}

// Admin groups the dashboard handlers. Role enforcement happens in the
// router middleware; handlers here assume an authenticated admin.
type Admin struct {
	renderer     *render.Renderer
	contents     *store.ContentStore
	categories   *store.CategoryStore
	licenses     *store.LicenseStore
	transactions *store.TransactionStore
	users        *store.UserStore
	invites      *store.InviteStore
	discounts    *store.DiscountStore
	newsletter   *store.NewsletterStore
	pageCache    *cache.PageCache
	storage      *storage.Client // nil when object storage is not configured
	mail         InviteMailer
	baseURL      string
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(renderer *render.Renderer, contents *store.ContentStore, categories *store.CategoryStore, licenses *store.LicenseStore, transactions *store.TransactionStore, users *store.UserStore, invites *store.InviteStore, discounts *store.DiscountStore, newsletter *store.NewsletterStore, pageCache *cache.PageCache, storageClient *storage.Client, mail InviteMailer, baseURL string) *Admin {
	return &Admin{
		renderer:     renderer,
		contents:     contents,
		categories:   categories,
		licenses:     licenses,
		transactions: transactions,
		users:        users,
		invites:      invites,
		discounts:    discounts,
		newsletter:   newsletter,
		pageCache:    pageCache,
		storage:      storageClient,
		mail:         mail,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// Dashboard shows per-kind asset counts and, for superadmins, the current
// month's revenue split.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	for kind, key := range map[models.ContentKind]string{
		models.KindComponent: "ComponentCount",
		models.KindTemplate:  "TemplateCount",
		models.KindGradient:  "GradientCount",
		models.KindDesign:    "DesignCount",
	} {
		n, err := a.contents.CountByKind(kind)
		if err != nil {
			slog.Error("dashboard count failed", "kind", kind, "error", err)
		}
		data[key] = n
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.Role == string(models.RoleSuperAdmin) {
		split, err := a.transactions.RevenueSplitForMonth(time.Now(), a.users)
		if err != nil {
			slog.Error("revenue split failed", "error", err)
		} else {
			data["Revenue"] = split
		}
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data:    data,
	})
}

// kindFromQuery reads ?kind= with component as the default.
func kindFromQuery(r *http.Request) models.ContentKind {
	kind := models.ContentKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		return models.KindComponent
	}
	return kind
}

// ---- Assets ----

// ContentsList shows assets of one kind.
func (a *Admin) ContentsList(w http.ResponseWriter, r *http.Request) {
	kind := kindFromQuery(r)

	contents, err := a.contents.ListByKind(kind)
	if err != nil {
		slog.Error("list contents failed", "kind", kind, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "contents", &render.PageData{
		Title:   "Assets",
		Section: "contents",
		Data: map[string]any{
			"Kind":     kind,
			"Kinds":    models.AllKinds,
			"Contents": contents,
		},
	})
}

// ContentNew renders the empty asset form.
func (a *Admin) ContentNew(w http.ResponseWriter, r *http.Request) {
	kind := kindFromQuery(r)
	cats, err := a.categories.FlatTree(kind)
	if err != nil {
		slog.Error("category tree failed", "error", err)
	}

	a.renderer.Page(w, r, "content_form", &render.PageData{
		Title:   "New Asset",
		Section: "contents",
		Data: map[string]any{
			"Content":    &models.Content{Kind: kind, Tier: models.TierFree, Status: models.ContentStatusDraft},
			"Categories": cats,
			"Action":     "/admin/contents",
		},
	})
}

// ContentCreate inserts a new asset from the form.
func (a *Admin) ContentCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	kind := models.ContentKind(r.FormValue("kind"))
	if !kind.Valid() {
		http.Error(w, "unknown asset kind", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	body := r.FormValue("body")
	assetSlug := slug.Generate(title)

	if msg := validateAssetForm(title, assetSlug, body); msg != "" {
		a.contentFormError(w, r, kind, nil, msg)
		return
	}

	content := &models.Content{
		Kind:       kind,
		Title:      strings.TrimSpace(title),
		Slug:       assetSlug,
		Body:       body,
		Tier:       tierFromForm(r.FormValue("tier")),
		Status:     statusFromForm(r.FormValue("status")),
		CategoryID: uuidOrNil(r.FormValue("category_id")),
		OwnerID:    sess.UserID,
		PreviewURL: strOrNil(r.FormValue("preview_url")),
		ArchiveKey: strOrNil(r.FormValue("archive_key")),
	}

	if _, err := a.contents.Create(content); err != nil {
		slog.Error("content create failed", "error", err)
		a.contentFormError(w, r, kind, content, "Could not save the asset. Is the title unique?")
		return
	}

	a.invalidateListings(r.Context(), kind)
	http.Redirect(w, r, "/admin/contents?kind="+string(kind), http.StatusSeeOther)
}

// ContentEdit renders the asset form with existing values.
func (a *Admin) ContentEdit(w http.ResponseWriter, r *http.Request) {
	content, ok := a.contentFromPath(w, r)
	if !ok {
		return
	}

	cats, err := a.categories.FlatTree(content.Kind)
	if err != nil {
		slog.Error("category tree failed", "error", err)
	}

	a.renderer.Page(w, r, "content_form", &render.PageData{
		Title:   "Edit Asset",
		Section: "contents",
		Data: map[string]any{
			"Content":    content,
			"Categories": cats,
			"Action":     "/admin/contents/" + content.ID.String(),
		},
	})
}

// ContentUpdate saves form edits to an existing asset.
func (a *Admin) ContentUpdate(w http.ResponseWriter, r *http.Request) {
	content, ok := a.contentFromPath(w, r)
	if !ok {
		return
	}

	title := r.FormValue("title")
	body := r.FormValue("body")
	assetSlug := slug.Generate(title)

	if msg := validateAssetForm(title, assetSlug, body); msg != "" {
		a.contentFormError(w, r, content.Kind, content, msg)
		return
	}

	content.Title = strings.TrimSpace(title)
	content.Slug = assetSlug
	content.Body = body
	content.Tier = tierFromForm(r.FormValue("tier"))
	content.Status = statusFromForm(r.FormValue("status"))
	content.CategoryID = uuidOrNil(r.FormValue("category_id"))
	content.PreviewURL = strOrNil(r.FormValue("preview_url"))
	content.ArchiveKey = strOrNil(r.FormValue("archive_key"))

	if err := a.contents.Update(content); err != nil {
		slog.Error("content update failed", "id", content.ID, "error", err)
		a.contentFormError(w, r, content.Kind, content, "Could not save the asset.")
		return
	}

	a.invalidateListings(r.Context(), content.Kind)
	http.Redirect(w, r, "/admin/contents?kind="+string(content.Kind), http.StatusSeeOther)
}

// ContentDelete removes an asset.
func (a *Admin) ContentDelete(w http.ResponseWriter, r *http.Request) {
	content, ok := a.contentFromPath(w, r)
	if !ok {
		return
	}

	if err := a.contents.Delete(content.ID); err != nil {
		slog.Error("content delete failed", "id", content.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.invalidateListings(r.Context(), content.Kind)
	w.WriteHeader(http.StatusOK)
}

func (a *Admin) contentFromPath(w http.ResponseWriter, r *http.Request) (*models.Content, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid asset ID", http.StatusBadRequest)
		return nil, false
	}
	content, err := a.contents.FindByID(id)
	if err != nil {
		slog.Error("content lookup failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if content == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return content, true
}

func (a *Admin) contentFormError(w http.ResponseWriter, r *http.Request, kind models.ContentKind, content *models.Content, msg string) {
	if content == nil {
		content = &models.Content{Kind: kind}
	}
	cats, _ := a.categories.FlatTree(kind)
	a.renderer.Page(w, r, "content_form", &render.PageData{
		Title:   "Asset",
		Section: "contents",
		Flashes: []render.Flash{{Type: "error", Message: msg}},
		Data: map[string]any{
			"Content":    content,
			"Categories": cats,
			"Action":     "/admin/contents",
		},
	})
}

// invalidateListings drops cached public pages for a kind plus the homepage.
func (a *Admin) invalidateListings(ctx context.Context, kind models.ContentKind) {
	a.pageCache.Invalidate(ctx, cache.ListingKey(string(kind)))
	a.pageCache.Invalidate(ctx, cache.HomepageKey())
}

// ---- Categories ----

// CategoriesList shows the category tree for one kind.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	kind := kindFromQuery(r)

	cats, err := a.categories.FlatTree(kind)
	if err != nil {
		slog.Error("list categories failed", "kind", kind, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data: map[string]any{
			"Kind":       kind,
			"Kinds":      models.AllKinds,
			"Categories": cats,
		},
	})
}

// CategoryNew renders the empty category form.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	kind := kindFromQuery(r)
	parents, err := a.categories.FlatTree(kind)
	if err != nil {
		slog.Error("category tree failed", "error", err)
	}

	a.renderer.Page(w, r, "category_form", &render.PageData{
		Title:   "New Category",
		Section: "categories",
		Data: map[string]any{
			"Category": &models.Category{Kind: kind},
			"Parents":  parents,
			"Action":   "/admin/categories",
		},
	})
}

// CategoryCreate inserts a new category.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	kind := models.ContentKind(r.FormValue("kind"))
	if !kind.Valid() {
		http.Error(w, "unknown asset kind", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if msg := validateCategoryForm(name); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	cat := &models.Category{
		Kind:     kind,
		Name:     name,
		Slug:     slug.Generate(name),
		ParentID: uuidOrNil(r.FormValue("parent_id")),
		OwnerID:  sess.UserID,
	}

	if _, err := a.categories.Create(cat); err != nil {
		slog.Error("category create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.invalidateListings(r.Context(), kind)
	http.Redirect(w, r, "/admin/categories?kind="+string(kind), http.StatusSeeOther)
}

// CategoryEdit renders the category form with existing values.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	cat, ok := a.categoryFromPath(w, r)
	if !ok {
		return
	}

	parents, err := a.categories.FlatTree(cat.Kind)
	if err != nil {
		slog.Error("category tree failed", "error", err)
	}
	// A category cannot be its own parent.
	filtered := parents[:0]
	for _, p := range parents {
		if p.ID != cat.ID {
			filtered = append(filtered, p)
		}
	}

	a.renderer.Page(w, r, "category_form", &render.PageData{
		Title:   "Edit Category",
		Section: "categories",
		Data: map[string]any{
			"Category": cat,
			"Parents":  filtered,
			"Action":   "/admin/categories/" + cat.ID.String(),
		},
	})
}

// categoryWouldCycle reports whether hanging the category under the
// proposed parent would close a loop: the parent itself, or any of its
// ancestors, being the category. The walk is capped so a row already
// corrupted into a loop cannot spin forever.
func (a *Admin) categoryWouldCycle(id uuid.UUID, parentID *uuid.UUID) bool {
	for depth := 0; parentID != nil && depth < 64; depth++ {
		if *parentID == id {
			return true
		}
		parent, err := a.categories.FindByID(*parentID)
		if err != nil || parent == nil {
			return false
		}
		parentID = parent.ParentID
	}
	return false
}

// CategoryUpdate saves edits to a category.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	cat, ok := a.categoryFromPath(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if msg := validateCategoryForm(name); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	cat.Name = name
	cat.Slug = slug.Generate(name)
	cat.ParentID = uuidOrNil(r.FormValue("parent_id"))
	if a.categoryWouldCycle(cat.ID, cat.ParentID) {
		http.Error(w, "a category cannot be nested under itself or one of its children", http.StatusBadRequest)
		return
	}

	if err := a.categories.Update(cat); err != nil {
		slog.Error("category update failed", "id", cat.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.invalidateListings(r.Context(), cat.Kind)
	http.Redirect(w, r, "/admin/categories?kind="+string(cat.Kind), http.StatusSeeOther)
}

// CategoryDelete removes a category. Children become top-level and assets
// keep their rows (the database nulls the references).
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	cat, ok := a.categoryFromPath(w, r)
	if !ok {
		return
	}

	if err := a.categories.Delete(cat.ID); err != nil {
		slog.Error("category delete failed", "id", cat.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.invalidateListings(r.Context(), cat.Kind)
	a.CategoriesList(w, r)
}

func (a *Admin) categoryFromPath(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid category ID", http.StatusBadRequest)
		return nil, false
	}
	cat, err := a.categories.FindByID(id)
	if err != nil {
		slog.Error("category lookup failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if cat == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return cat, true
}

// ---- Licenses ----

// LicensesList shows all license keys.
func (a *Admin) LicensesList(w http.ResponseWriter, r *http.Request) {
	licenses, err := a.licenses.List()
	if err != nil {
		slog.Error("list licenses failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "licenses", &render.PageData{
		Title:   "Licenses",
		Section: "licenses",
		Data:    map[string]any{"Licenses": licenses},
	})
}

// LicenseNew renders the empty license form.
func (a *Admin) LicenseNew(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "license_form", &render.PageData{
		Title:   "New License",
		Section: "licenses",
		Data: map[string]any{
			"License": &models.License{Status: models.LicenseInactive, PlanType: models.PlanSubscribe, Tier: models.LicenseTierPro},
			"Action":  "/admin/licenses",
		},
	})
}

// LicenseCreate inserts a new license key.
func (a *Admin) LicenseCreate(w http.ResponseWriter, r *http.Request) {
	license, errMsg := licenseFromForm(r, &models.License{})
	if errMsg != "" {
		http.Error(w, errMsg, http.StatusBadRequest)
		return
	}

	if _, err := a.licenses.Create(license); err != nil {
		slog.Error("license create failed", "error", err)
		http.Error(w, "could not create license (duplicate key?)", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/licenses", http.StatusSeeOther)
}

// LicenseEdit renders the license form with existing values.
func (a *Admin) LicenseEdit(w http.ResponseWriter, r *http.Request) {
	license, ok := a.licenseFromPath(w, r)
	if !ok {
		return
	}

	// Show the owner's other licenses next to the one being edited.
	var siblings []models.License
	if license.OwnerID != nil {
		owned, err := a.licenses.ListByOwner(*license.OwnerID)
		if err != nil {
			slog.Error("list owner licenses failed", "owner", *license.OwnerID, "error", err)
		}
		for _, l := range owned {
			if l.ID != license.ID {
				siblings = append(siblings, l)
			}
		}
	}

	a.renderer.Page(w, r, "license_form", &render.PageData{
		Title:   "Edit License",
		Section: "licenses",
		Data: map[string]any{
			"License":       license,
			"OwnerLicenses": siblings,
			"Action":        "/admin/licenses/" + license.ID.String(),
		},
	})
}

// LicenseUpdate saves edits to a license.
func (a *Admin) LicenseUpdate(w http.ResponseWriter, r *http.Request) {
	license, ok := a.licenseFromPath(w, r)
	if !ok {
		return
	}

	license, errMsg := licenseFromForm(r, license)
	if errMsg != "" {
		http.Error(w, errMsg, http.StatusBadRequest)
		return
	}

	if err := a.licenses.Update(license); err != nil {
		slog.Error("license update failed", "id", license.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/licenses", http.StatusSeeOther)
}

// LicenseDelete removes a license key.
func (a *Admin) LicenseDelete(w http.ResponseWriter, r *http.Request) {
	license, ok := a.licenseFromPath(w, r)
	if !ok {
		return
	}

	if err := a.licenses.Delete(license.ID); err != nil {
		slog.Error("license delete failed", "id", license.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *Admin) licenseFromPath(w http.ResponseWriter, r *http.Request) (*models.License, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid license ID", http.StatusBadRequest)
		return nil, false
	}
	license, err := a.licenses.FindByID(id)
	if err != nil {
		slog.Error("license lookup failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if license == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return license, true
}

// licenseFromForm applies form values onto a license, returning an error
// message for bad input.
func licenseFromForm(r *http.Request, license *models.License) (*models.License, string) {
	key := strings.TrimSpace(r.FormValue("key"))
	if key == "" {
		return nil, "license key is required"
	}
	license.Key = key

	switch plan := models.PlanType(r.FormValue("plan_type")); plan {
	case models.PlanSubscribe, models.PlanOneTime:
		license.PlanType = plan
	default:
		return nil, "unknown plan type"
	}

	switch tier := models.LicenseTier(r.FormValue("tier")); tier {
	case models.LicenseTierPro, models.LicenseTierProPlus:
		license.Tier = tier
	default:
		return nil, "unknown tier"
	}

	switch status := models.LicenseStatus(r.FormValue("status")); status {
	case models.LicenseActive, models.LicenseInactive, models.LicenseExpired, models.LicenseDisabled:
		license.Status = status
	default:
		return nil, "unknown status"
	}

	license.ExpiresAt = nil
	if raw := strings.TrimSpace(r.FormValue("expires_at")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, "expiry date must be YYYY-MM-DD"
		}
		license.ExpiresAt = &t
	}

	return license, ""
}

// ---- Transactions ----

// TransactionsList shows the license transaction ledger.
func (a *Admin) TransactionsList(w http.ResponseWriter, r *http.Request) {
	transactions, err := a.transactions.List()
	if err != nil {
		slog.Error("list transactions failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "transactions", &render.PageData{
		Title:   "Transactions",
		Section: "transactions",
		Data:    map[string]any{"Transactions": transactions},
	})
}

// TransactionDetail shows a single ledger entry with its raw provider
// metadata.
func (a *Admin) TransactionDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid transaction ID", http.StatusBadRequest)
		return
	}

	tx, err := a.transactions.FindByID(id)
	if err != nil {
		slog.Error("find transaction failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if tx == nil {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}

	a.renderer.Page(w, r, "transaction_detail", &render.PageData{
		Title:   "Transaction",
		Section: "transactions",
		Data:    map[string]any{"Transaction": tx},
	})
}

// ---- Users (superadmin) ----

// UsersList shows all accounts.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List()
	if err != nil {
		slog.Error("list users failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "users", &render.PageData{
		Title:   "Users",
		Section: "users",
		Data:    map[string]any{"Users": users},
	})
}

// UserUpdateRole changes an account's role.
func (a *Admin) UserUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	role := models.Role(r.FormValue("role"))
	switch role {
	case models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	// A superadmin cannot demote themselves; that would lock the panel.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.UserID == id && role != models.RoleSuperAdmin {
		http.Error(w, "cannot change your own role", http.StatusBadRequest)
		return
	}

	if err := a.users.UpdateRole(id, role); err != nil {
		slog.Error("role update failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// UserDelete removes an account.
func (a *Admin) UserDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.UserID == id {
		http.Error(w, "cannot delete your own account", http.StatusBadRequest)
		return
	}

	if err := a.users.Delete(id); err != nil {
		slog.Error("user delete failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ---- Invites (superadmin) ----

// InvitesList shows pending and past invites.
func (a *Admin) InvitesList(w http.ResponseWriter, r *http.Request) {
	if _, err := a.invites.ExpireStale(); err != nil {
		slog.Error("expire stale invites failed", "error", err)
	}

	invites, err := a.invites.List()
	if err != nil {
		slog.Error("list invites failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "invites", &render.PageData{
		Title:   "Invites",
		Section: "invites",
		Data:    map[string]any{"Invites": invites},
	})
}

// InviteCreate issues a new invite token for an email address.
func (a *Admin) InviteCreate(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	role := models.Role(r.FormValue("role"))
	switch role {
	case models.RoleAdmin, models.RoleSuperAdmin:
	default:
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	inv, err := a.invites.Create(email, role, inviteTTL)
	if err != nil {
		slog.Error("invite create failed", "email", email, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if a.mail != nil {
		link := a.baseURL + "/admin/invites/accept?token=" + inv.Token
		if err := a.mail.SendInvite(r.Context(), inv.Email, string(inv.Role), link); err != nil {
			// The invite row exists; the admin can revoke and re-issue.
			slog.Error("invite email failed", "email", email, "error", err)
		}
	}

	http.Redirect(w, r, "/admin/invites", http.StatusSeeOther)
}

// InviteDelete revokes an invite.
func (a *Admin) InviteDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid invite ID", http.StatusBadRequest)
		return
	}

	if err := a.invites.Delete(id); err != nil {
		slog.Error("invite delete failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ---- Discounts ----

// DiscountsList shows all discount codes.
func (a *Admin) DiscountsList(w http.ResponseWriter, r *http.Request) {
	discounts, err := a.discounts.List()
	if err != nil {
		slog.Error("list discounts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "discounts", &render.PageData{
		Title:   "Discounts",
		Section: "discounts",
		Data:    map[string]any{"Discounts": discounts},
	})
}

// DiscountCreate adds a new discount code.
func (a *Admin) DiscountCreate(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.FormValue("code")))
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	percent, err := strconv.Atoi(r.FormValue("percent"))
	if err != nil || percent < 1 || percent > 100 {
		http.Error(w, "percent must be between 1 and 100", http.StatusBadRequest)
		return
	}

	if _, err := a.discounts.Create(code, percent); err != nil {
		slog.Error("discount create failed", "code", code, "error", err)
		http.Error(w, "could not create code (duplicate?)", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/discounts", http.StatusSeeOther)
}

// DiscountToggle flips a code between active and inactive.
func (a *Admin) DiscountToggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid discount ID", http.StatusBadRequest)
		return
	}

	discounts, err := a.discounts.List()
	if err != nil {
		slog.Error("discount lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	for _, d := range discounts {
		if d.ID == id {
			if err := a.discounts.SetActive(id, !d.Active); err != nil {
				slog.Error("discount toggle failed", "id", id, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, "/admin/discounts", http.StatusSeeOther)
			return
		}
	}

	http.NotFound(w, r)
}

// DiscountDelete removes a discount code.
func (a *Admin) DiscountDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid discount ID", http.StatusBadRequest)
		return
	}

	if err := a.discounts.Delete(id); err != nil {
		slog.Error("discount delete failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ---- Newsletter ----

// NewsletterList shows newsletter subscribers.
func (a *Admin) NewsletterList(w http.ResponseWriter, r *http.Request) {
	subscribers, err := a.newsletter.List()
	if err != nil {
		slog.Error("list subscribers failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "newsletter", &render.PageData{
		Title:   "Newsletter",
		Section: "newsletter",
		Data:    map[string]any{"Subscribers": subscribers},
	})
}

// ---- form helpers ----

func tierFromForm(v string) models.ContentTier {
	if v == string(models.TierPro) {
		return models.TierPro
	}
	return models.TierFree
}

func statusFromForm(v string) models.ContentStatus {
	if v == string(models.ContentStatusPublished) {
		return models.ContentStatusPublished
	}
	return models.ContentStatusDraft
}

func uuidOrNil(v string) *uuid.UUID {
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}

func strOrNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
