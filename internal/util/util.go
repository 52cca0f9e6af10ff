// Package util provides content hashing and display formatting helpers.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// FormatDate renders a timestamp the way post pages display it,
// e.g. "March 1, 2025". Zero times render as an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}
