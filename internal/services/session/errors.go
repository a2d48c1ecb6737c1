package session

// SessionError is a custom error type for session-related errors
type SessionError string

// Error implements the error interface
func (e SessionError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrSessionNotFound        SessionError = "Session not found"
	ErrInvalidGameIndex       SessionError = "Invalid game index"
	ErrSessionExists          SessionError = "session already exists"
	ErrInvalidSession         SessionError = "session validation failed"
	ErrConcurrentModification SessionError = "session was modified by another request"
	ErrNilInput               SessionError = "input cannot be nil"
	ErrNilConfig              SessionError = "config cannot be nil"
	ErrNilSessionRepo         SessionError = "session repository cannot be nil"
)
