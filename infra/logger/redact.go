package logger

import (
	"strings"
	"unicode"
)

const redactionMarker = "[REDACTED]"

// sensitiveMarkers flags field names whose values must never be logged
// whole: card data, tokens, keys and other credentials.
var sensitiveMarkers = []string{
	"card", "pan", "cvv", "cvc", "token", "nonce",
	"secret", "key", "password", "authorization", "fingerprint",
}

// cardLikeMarkers flags fields that carry a card number, for which a last-4
// suffix is still useful in diagnostics.
var cardLikeMarkers = []string{"cardnumber", "card_number", "number", "pan"}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isCardLikeField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range cardLikeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// redactValue renders a loggable stand-in for a sensitive value. Card-like
// fields keep a last-4 suffix; everything else becomes a fixed marker.
func redactValue(field string, value any) any {
	if isCardLikeField(field) {
		if s, ok := value.(string); ok {
			if digits := digitsOnly(s); len(digits) >= 4 {
				return "****" + digits[len(digits)-4:]
			}
		}
		return redactionMarker
	}
	return redactionMarker
}

// RedactFields returns a copy of fields with sensitive values replaced.
// The input map is never mutated.
func RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if isSensitiveField(k) {
			out[k] = redactValue(k, v)
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = RedactFields(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// TokenPreview shortens an opaque token to a loggable prefix.
func TokenPreview(token string) string {
	if len(token) <= 8 {
		return redactionMarker
	}
	return token[:8] + "..."
}
