// Package media holds the pure functions of the download pipeline:
// filename sanitization and URL fingerprinting. Both are deterministic and
// side-effect free so dedup and idempotence properties can be tested in
// isolation.
package media

import (
	"strings"
	"unicode"
)

// PlaceholderName is used when sanitization strips a title down to nothing.
const PlaceholderName = "untitled"

// MaxBaseLength caps the sanitized base name (extension excluded).
const MaxBaseLength = 100

// Sanitize converts a raw media title into a filesystem-safe base name.
// Letters, digits, '-', '_' and '.' survive; whitespace runs collapse to a
// single underscore; dot runs collapse to a single dot so the result never
// contains ".."; everything else (emoji included) is stripped. The base
// name is truncated to MaxBaseLength runes, preserving any short extension
// suffix. Never returns an empty string.
func Sanitize(raw string) string {
	base, ext := splitExtension(raw)

	var b strings.Builder
	pendingSep := false
	prevDot := false
	for _, r := range base {
		switch {
		case unicode.IsSpace(r):
			if b.Len() > 0 {
				pendingSep = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.':
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
				prevDot = false
			}
			if r == '.' && prevDot {
				continue
			}
			b.WriteRune(r)
			prevDot = r == '.'
		default:
			// stripped
		}
	}

	cleaned := strings.Trim(b.String(), "_.")
	if runes := []rune(cleaned); len(runes) > MaxBaseLength {
		cleaned = strings.Trim(string(runes[:MaxBaseLength]), "_.")
	}
	if cleaned == "" {
		cleaned = PlaceholderName
	}
	return cleaned + ext
}

// splitExtension peels off a trailing media extension (dot plus 1-4
// alphanumerics) so truncation never eats it. Titles with sentence-final
// dots or long "extensions" are treated as plain text.
func splitExtension(s string) (base, ext string) {
	idx := strings.LastIndexByte(s, '.')
	if idx <= 0 || idx == len(s)-1 {
		return s, ""
	}
	tail := s[idx+1:]
	if len(tail) > 4 {
		return s, ""
	}
	for _, r := range tail {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return s, ""
		}
	}
	return s[:idx], strings.ToLower("." + tail)
}
