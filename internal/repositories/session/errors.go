package session

import "errors"

var (
	// ErrSessionNotFound is returned when no session has the requested ID
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session whose ID is taken
	ErrSessionExists = errors.New("session already exists")

	// ErrRevisionMismatch is returned when a session changed since it was read
	ErrRevisionMismatch = errors.New("session was modified by another request")
)
