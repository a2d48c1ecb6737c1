package session

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/gamenight/internal/services/session Service

import "context"

// Service defines the session operations exposed over the API
type Service interface {
	// ListSessions returns every session
	ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error)

	// CreateSession creates a session under a new, unique ID
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// UpsertSession updates a session, creating it if the ID is unknown
	UpsertSession(ctx context.Context, input *UpsertSessionInput) (*UpsertSessionOutput, error)

	// DeleteSession permanently removes a session
	DeleteSession(ctx context.Context, input *DeleteSessionInput) (*DeleteSessionOutput, error)

	// DeleteGame removes one game from a session's history by position
	DeleteGame(ctx context.Context, input *DeleteGameInput) (*DeleteGameOutput, error)
}
