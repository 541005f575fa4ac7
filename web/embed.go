// Package web provides embedded static assets (CSS, JS) for the admin
// dashboard, served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree. Docker builds compile
// TailwindCSS and vendor HTMX into it; a local checkout ships minimal
// fallback files so the dashboard stays usable.
//
//go:embed all:static
var StaticFS embed.FS
