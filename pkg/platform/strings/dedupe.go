// Package strings provides string utilities shared across the verification
// engine: list de-duplication for decision annotations and masking for
// sensitive identifiers in logs.
package strings

import "strings"

// DedupeAndTrim trims whitespace from each element and removes duplicates
// and empty strings, preserving first-occurrence order. Decision issue and
// recommendation lists are assembled per step and can repeat.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
