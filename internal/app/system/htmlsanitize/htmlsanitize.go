// Package htmlsanitize cleans user-supplied rich text before storage.
// Free-text fields accept limited formatting; everything executable is
// stripped at this boundary so downstream consumers can trust stored
// content.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps safe user-generated formatting (paragraphs, emphasis,
// links with safe schemes) and removes scripts, event handlers, and
// javascript: URLs.
func Sanitize(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}

// PlainText strips all markup, for fields that are plain text by contract
// (names, phone numbers, message bodies rendered as text).
func PlainText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
