package helpers

import "unicode/utf8"

// TruncateRunes cuts s to at most limit characters without splitting a multi-byte rune.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
