package model

import "strings"

// UIDLength is the length of generated uids. Linked tags may carry any length.
const UIDLength = 8

// NormalizeUID trims whitespace and upper-cases a raw tag uid.
func NormalizeUID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsGeneratedUID reports whether s has the shape of a generated uid.
func IsGeneratedUID(s string) bool {
	if len(s) != UIDLength {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}
