package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the result at maxLen
// characters. A non-positive maxLen disables the cap.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	count := 0
	for i := range trimmed {
		if count == maxLen {
			return strings.TrimSpace(trimmed[:i])
		}
		count++
	}
	return trimmed
}
