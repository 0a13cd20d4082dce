// Package strcase converts Go identifiers to wire-style names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts a string to snake_case (initialism-safe).
//
//	SenderEmail -> sender_email
//	HTTPServer  -> http_server
//	userID      -> user_id
func ToLowerSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('_')
			}
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// ToLowerSnakePath converts every segment of a dotted field path, keeping
// slice indexes intact and dropping the leading struct name.
//
//	SendCampaignInput.Recipients[3].Email -> recipients[3].email
func ToLowerSnakePath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	for i, part := range parts {
		name, index, _ := strings.Cut(part, "[")
		parts[i] = ToLowerSnake(name)
		if index != "" {
			parts[i] += "[" + index
		}
	}

	return strings.Join(parts, ".")
}
