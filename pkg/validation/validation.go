package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTownLength bounds the length of a town query in runes
const MaxTownLength = 100

// IsNotEmpty checks if string is not empty after trimming
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// TrimAndValidate trims string and validates it's not empty
func TrimAndValidate(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	return trimmed, trimmed != ""
}

// IsValidTown reports whether s is usable as a town query: non-blank,
// at most MaxTownLength runes and free of control characters
func IsValidTown(s string) bool {
	trimmed, ok := TrimAndValidate(s)
	if !ok {
		return false
	}
	if utf8.RuneCountInString(trimmed) > MaxTownLength {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
