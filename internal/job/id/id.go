// Package id generates invocation-scoped identifiers for broadcast jobs.
package id

import "github.com/google/uuid"

// Prefix starts every generated ID.
const Prefix = "atis-"

// Generate creates a new unique job ID.
// Format: atis-<uuid v4>
// Example: atis-9b2f6c4e-3d1a-4f7b-8e0c-5a6d7e8f9a0b
func Generate() string {
	return Prefix + uuid.NewString()
}

// Valid reports whether s has the shape of a generated ID. Callers use it to
// reject IDs that could escape a storage namespace.
func Valid(s string) bool {
	if len(s) <= len(Prefix) || s[:len(Prefix)] != Prefix {
		return false
	}
	_, err := uuid.Parse(s[len(Prefix):])
	return err == nil
}
