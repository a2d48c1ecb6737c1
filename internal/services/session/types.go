package session

import (
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/gamenight/internal/models"
	sessionRepo "github.com/KirkDiggler/gamenight/internal/repositories/session"
)

// UpsertOutcome tells which branch of an upsert ran
type UpsertOutcome string

const (
	// UpsertOutcomeUpdated indicates an existing session was modified
	UpsertOutcomeUpdated UpsertOutcome = "updated"

	// UpsertOutcomeCreated indicates no session existed and one was created
	UpsertOutcomeCreated UpsertOutcome = "created"
)

// Config holds configuration for the session service
type Config struct {
	// Repository dependencies
	SessionRepo sessionRepo.Repository

	// Logger receives store failures. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

type ListSessionsInput struct {
}

type ListSessionsOutput struct {
	Sessions []*models.Session
}

// CreateSessionInput contains the fields of a new session.
// Timestamps are assigned by the store.
type CreateSessionInput struct {
	ID      string
	Name    string
	Players []string
	Games   []models.Game
}

type CreateSessionOutput struct {
	Session *models.Session
}

// UpsertSessionInput contains the path ID and the fields to set
type UpsertSessionInput struct {
	// ID from the request path. It wins over any ID in the body.
	ID string

	Changes models.SessionChanges
}

type UpsertSessionOutput struct {
	Session *models.Session
	Outcome UpsertOutcome
}

type DeleteSessionInput struct {
	ID string
}

type DeleteSessionOutput struct {
	// Session is the removed session's last state
	Session *models.Session
}

// DeleteGameInput addresses one game by its 0-based position
type DeleteGameInput struct {
	SessionID string
	Index     int
}

type DeleteGameOutput struct {
	Session *models.Session
}
