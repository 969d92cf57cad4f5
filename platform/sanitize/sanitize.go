// Package sanitize cleans free text received from devices before it is
// logged or broadcast to stream subscribers.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Text strips markup, decodes entities and folds all whitespace runs,
// including newlines, into single spaces. Control characters are dropped.
func Text(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	// Entities may have encoded further tags.
	s = tagPattern.ReplaceAllString(s, "")

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
