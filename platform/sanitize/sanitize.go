// Package sanitize provides text cleanup utilities for user-supplied content.
// This is part of the platform layer and contains no business logic.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

// Snippet collapses whitespace and truncates text to max runes, appending an
// ellipsis when clipped. Used when embedding user text in notifications.
func Snippet(text string, max int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if max <= 0 || utf8.RuneCountInString(collapsed) <= max {
		return collapsed
	}

	runes := []rune(collapsed)
	return strings.TrimSpace(string(runes[:max])) + "…"
}

// SingleLine strips newlines so user text cannot break log or header formats.
func SingleLine(text string) string {
	replacer := strings.NewReplacer("\r", " ", "\n", " ")
	return strings.TrimSpace(replacer.Replace(text))
}
