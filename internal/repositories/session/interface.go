package session

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/gamenight/internal/repositories/session Repository

import (
	"context"

	"github.com/KirkDiggler/gamenight/internal/models"
)

// Repository defines the interface for session persistence.
// Sessions are addressed by their external ID, never by StorageID.
type Repository interface {
	// ListSessions returns every stored session
	ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error)

	// CreateSession validates and persists a new session.
	// Returns ErrSessionExists if the ID is taken.
	CreateSession(ctx context.Context, input *CreateSessionInput) (*models.Session, error)

	// ReplaceSession applies changes to the session with the given ID,
	// creating it when it does not exist
	ReplaceSession(ctx context.Context, input *ReplaceSessionInput) (*ReplaceSessionOutput, error)

	// DeleteSession removes a session and returns its last state.
	// Returns ErrSessionNotFound if there was nothing to delete.
	DeleteSession(ctx context.Context, input *DeleteSessionInput) (*models.Session, error)

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// UpdateSession saves a session read earlier, provided nobody else
	// wrote it in between. Returns ErrRevisionMismatch otherwise.
	UpdateSession(ctx context.Context, input *UpdateSessionInput) (*models.Session, error)
}
