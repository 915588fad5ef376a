package uuidx

import "github.com/google/uuid"

// New returns a fresh v7 UUID. Run and turn identifiers are v7 so they
// sort by creation time.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh v7 UUID as a string.
func NewString() string {
	return New().String()
}
