// Package model defines domain entities for the application.
package model

import "github.com/oklog/ulid/v2"

// NewID returns a new lexicographically sortable identifier.
func NewID() string {
	return ulid.Make().String()
}

// IsValidID reports whether id is a well-formed identifier.
func IsValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
