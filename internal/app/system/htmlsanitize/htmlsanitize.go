// Package htmlsanitize strips markup from user-entered text.
//
// Names and labels are rendered by the dashboard as plain text, so every tag
// is removed rather than whitelisted.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes all HTML, decodes entities and collapses runs of
// whitespace to single spaces.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(out), " ")
}

// PlainTextPtr applies PlainText to a non-nil pointer.
func PlainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := PlainText(*s)
	return &v
}
