package utils

import "strings"

// NormalizeEmail trims surrounding whitespace and lowercases the address so
// lookups and the unique index agree on a single canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
