package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// validate checks JSON API payloads via struct tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validation limits for admin form fields.
const (
	maxTitleLen = 300
	maxSlugLen  = 300
	maxBodyLen  = 500_000
	maxNameLen  = 200
)

// validateAssetForm checks asset form inputs and returns the first error found.
func validateAssetForm(title, slug, body string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Code payload is too long (max 500,000 characters)."
	}
	return ""
}

// validateCategoryForm checks category form inputs.
func validateCategoryForm(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	return ""
}
