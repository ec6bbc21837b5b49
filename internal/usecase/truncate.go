package usecase

import "strings"

const truncationSuffix = "..."

// TruncateWords keeps at most max whitespace-separated words of s. A
// truncated result is rejoined with single spaces and suffixed with "...";
// text that already fits is returned untouched.
func TruncateWords(s string, max int) string {
	if max <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ") + truncationSuffix
}
