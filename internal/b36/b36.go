// Package b36 contains base-36 helpers for slab and memo identifiers.
package b36

import "strconv"

// Encode renders n in lowercase base-36 ("0".."9", "a".."z").
func Encode(n uint64) string {
	return strconv.FormatUint(n, 36)
}

// Valid reports whether s is a non-empty lowercase base-36 string.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
