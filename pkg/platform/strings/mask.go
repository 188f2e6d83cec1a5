package strings

import "strings"

// Mask hides all but the first prefixLen characters of a sensitive value,
// padding with asterisks. Identifiers must never appear unmasked in logs.
//
// Example:
//
//	Mask("12345678901", 3)
//	// Returns: "123********"
func Mask(value string, prefixLen int) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if prefixLen < 0 {
		prefixLen = 0
	}
	if len(runes) <= prefixLen {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:prefixLen]) + strings.Repeat("*", len(runes)-prefixLen)
}
