// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"moonui/internal/cache"
	"moonui/internal/models"
	"moonui/internal/storage"
	"moonui/internal/store"
)

// downloadLinkTTL is how long a presigned archive URL stays valid.
const downloadLinkTTL = 15 * time.Minute

// Public groups the endpoints the site frontend reads without
// authentication: published asset listings, asset detail, and the SEO
// plumbing. Listing responses are cached in Valkey and invalidated when
// an admin touches content.
type Public struct {
	contents   *store.ContentStore
	categories *store.CategoryStore
	licenses   *store.LicenseStore
	pageCache  *cache.PageCache
	storage    *storage.Client // nil when object storage is not configured
	baseURL    string
}

// NewPublic creates a new Public handler group.
func NewPublic(contents *store.ContentStore, categories *store.CategoryStore, licenses *store.LicenseStore, pageCache *cache.PageCache, storageClient *storage.Client, baseURL string) *Public {
	return &Public{
		contents:   contents,
		categories: categories,
		licenses:   licenses,
		pageCache:  pageCache,
		storage:    storageClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// pathKind maps the plural URL segment ("components", "designs") back to
// its asset kind. The route captures the whole segment; trimming the "s"
// here keeps chi from splitting the param at the first letter match.
func pathKind(r *http.Request) (models.ContentKind, bool) {
	plural, ok := strings.CutSuffix(chi.URLParam(r, "kind"), "s")
	if !ok {
		return "", false
	}
	kind := models.ContentKind(plural)
	return kind, kind.Valid()
}

// listingPayload is the cached shape of a kind listing.
type listingPayload struct {
	Kind       models.ContentKind `json:"kind"`
	Categories []models.Category  `json:"categories"`
	Contents   []models.Content   `json:"contents"`
}

// Listing returns published assets of one kind with the category tree.
// Pro asset bodies are stripped; the code payload is only released through
// the download endpoint after a license check.
func (p *Public) Listing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "bad_kind", "Unknown asset kind.")
		return
	}

	// L2 cache first.
	if cached, ok := p.pageCache.Get(ctx, cache.ListingKey(string(kind))); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(cached)
		return
	}

	contents, err := p.contents.ListPublishedByKind(kind)
	if err != nil {
		slog.Error("public listing failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "listing_failed", "Could not load assets.")
		return
	}
	for i := range contents {
		if contents[i].Tier == models.TierPro {
			contents[i].Body = ""
		}
	}

	categories, err := p.categories.Tree(kind)
	if err != nil {
		slog.Error("public category tree failed", "kind", kind, "error", err)
	}

	body, err := json.Marshal(Envelope{
		Success: true,
		Code:    "ok",
		Message: "",
		Data:    listingPayload{Kind: kind, Categories: categories, Contents: contents},
	})
	if err != nil {
		slog.Error("listing marshal failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing_failed", "Could not load assets.")
		return
	}

	p.pageCache.Set(ctx, cache.ListingKey(string(kind)), body)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(body)
}

// Detail returns one published asset by kind and slug. Free assets include
// the code payload; pro assets require an active license key passed in the
// X-License-Key header.
func (p *Public) Detail(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "bad_kind", "Unknown asset kind.")
		return
	}

	content, err := p.contents.FindPublishedBySlug(kind, chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("public detail failed", "error", err)
		writeError(w, http.StatusInternalServerError, "detail_failed", "Could not load the asset.")
		return
	}
	if content == nil {
		writeError(w, http.StatusNotFound, "not_found", "Asset not found.")
		return
	}

	if content.Tier == models.TierPro && !p.hasActiveLicense(r) {
		content.Body = ""
		writeJSON(w, http.StatusOK, Envelope{
			Success: true,
			Code:    "pro_locked",
			Message: "This asset requires an active pro license.",
			Data:    content,
		})
		return
	}

	writeOK(w, "", content)
}

// Download hands out a short-lived presigned URL for an asset's archive in
// the private bucket. Pro archives require an active license key; the
// download counter is bumped on success.
func (p *Public) Download(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "bad_kind", "Unknown asset kind.")
		return
	}

	content, err := p.contents.FindPublishedBySlug(kind, chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("download lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "download_failed", "Could not prepare the download.")
		return
	}
	if content == nil {
		writeError(w, http.StatusNotFound, "not_found", "Asset not found.")
		return
	}

	if content.Tier == models.TierPro && !p.hasActiveLicense(r) {
		writeError(w, http.StatusForbidden, "license_required", "An active pro license is required to download this asset.")
		return
	}

	if p.storage == nil || content.ArchiveKey == nil {
		writeError(w, http.StatusNotFound, "no_archive", "This asset has no downloadable archive.")
		return
	}

	url, err := p.storage.PresignedURL(r.Context(), *content.ArchiveKey, downloadLinkTTL)
	if err != nil {
		slog.Error("presign failed", "key", *content.ArchiveKey, "error", err)
		writeError(w, http.StatusInternalServerError, "download_failed", "Could not prepare the download.")
		return
	}

	if err := p.contents.IncrementStat(content.ID, kind, models.StatDownload); err != nil {
		slog.Error("download count failed", "id", content.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, Envelope{Success: true, Code: "ok", URL: url})
}

// hasActiveLicense checks the X-License-Key header against the local
// license table.
func (p *Public) hasActiveLicense(r *http.Request) bool {
	key := strings.TrimSpace(r.Header.Get("X-License-Key"))
	if key == "" {
		return false
	}
	license, err := p.licenses.FindByKey(key)
	if err != nil {
		slog.Error("license header lookup failed", "error", err)
		return false
	}
	return license != nil && license.IsActive()
}

// Robots serves robots.txt, keeping crawlers out of the dashboard and API.
func (p *Public) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, `User-agent: *
Disallow: /admin/
Disallow: /api/
Disallow: /dashboard/

Sitemap: %s/sitemap.xml
`, p.baseURL)
}

// Sitemap serves a sitemap of the published asset pages.
func (p *Public) Sitemap(w http.ResponseWriter, r *http.Request) {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")

	writeURL := func(path string) {
		sb.WriteString("  <url><loc>")
		sb.WriteString(p.baseURL)
		sb.WriteString(path)
		sb.WriteString("</loc></url>\n")
	}

	writeURL("/")
	for _, kind := range models.AllKinds {
		writeURL("/" + string(kind) + "s")

		contents, err := p.contents.ListPublishedByKind(kind)
		if err != nil {
			slog.Error("sitemap listing failed", "kind", kind, "error", err)
			continue
		}
		for _, c := range contents {
			writeURL("/" + string(kind) + "s/" + c.Slug)
		}
	}
	sb.WriteString("</urlset>\n")

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(sb.String()))
}
