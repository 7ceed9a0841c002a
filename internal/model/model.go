package model

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionID identifies one push invocation to the feed (UUIDv7).
// Every upload of the invocation carries the same value.
type SessionID string

// NewSessionID generates a fresh UUIDv7 session identifier.
func NewSessionID() (SessionID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("session-id: %w", err)
	}
	return SessionID(id.String()), nil
}

// Validate checks that the SessionID is a valid UUIDv7.
func (s SessionID) Validate() error {
	if s == "" {
		return fmt.Errorf("session-id cannot be empty")
	}
	id, err := uuid.Parse(string(s))
	if err != nil {
		return fmt.Errorf("session-id must be a valid UUID: %w", err)
	}
	if id.Version() != uuid.Version(7) {
		return fmt.Errorf("session-id must be a UUIDv7, got v%d", id.Version())
	}
	return nil
}

// String returns the session ID as a string.
func (s SessionID) String() string {
	return string(s)
}
