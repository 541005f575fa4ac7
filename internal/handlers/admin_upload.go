// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxUploadSize is the maximum allowed preview upload size (10 MB).
const maxUploadSize = 10 << 20

// allowedPreviewTypes defines MIME types accepted for asset previews.
var allowedPreviewTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// PreviewUpload stores a preview image in the public bucket and returns
// its URL for the asset form. Archives for the private bucket are synced
// out of band; only previews go through the dashboard.
func (a *Admin) PreviewUpload(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "no_storage", "Object storage is not configured.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "File too large. Maximum size is 10 MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "A file field is required.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedPreviewTypes[contentType] {
		writeError(w, http.StatusUnsupportedMediaType, "bad_type", "Only JPEG, PNG, GIF, WebP, and SVG previews are accepted.")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := "previews/" + uuid.NewString() + ext

	if err := a.storage.Upload(r.Context(), a.storage.PublicBucket(), key, contentType, file, header.Size); err != nil {
		slog.Error("preview upload failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "upload_failed", "Could not store the file.")
		return
	}

	writeJSON(w, http.StatusOK, Envelope{Success: true, Code: "ok", URL: a.storage.FileURL(key)})
}
