// Package security holds the input sanitizer, session token generator and
// numeric clamps used at the edges of the engine.
package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/learning-beast/internal/model"
)

// MaxTextLength is the maximum number of characters kept from free text.
const MaxTextLength = 600

// MaxDisplayNameLength caps learner display names.
const MaxDisplayNameLength = 80

var unsafeText = regexp.MustCompile(`[^a-zA-Z0-9 .,;:?!¡¿'"\-\n]`)

// markupEscaper escapes markup with &quot; and &#x27; for quotes, the
// entities existing clients expect.
var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// SanitizeFreeText trims raw, keeps at most MaxTextLength characters, drops
// anything outside the safe character set and escapes markup.
func SanitizeFreeText(raw string) (string, error) {
	return sanitize(raw, MaxTextLength)
}

// SanitizeDisplayName is SanitizeFreeText with the display name limit.
func SanitizeDisplayName(raw string) (string, error) {
	return sanitize(raw, MaxDisplayNameLength)
}

func sanitize(raw string, limit int) (string, error) {
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("text payload is not valid UTF-8: %w", model.ErrInvalidInput)
	}
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) > limit {
		trimmed = string([]rune(trimmed)[:limit])
	}
	cleaned := unsafeText.ReplaceAllString(trimmed, "")
	return markupEscaper.Replace(cleaned), nil
}
