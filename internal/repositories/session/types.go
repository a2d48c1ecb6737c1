package session

import "github.com/KirkDiggler/gamenight/internal/models"

type ListSessionsInput struct {
}

type ListSessionsOutput struct {
	Sessions []*models.Session
}

type CreateSessionInput struct {
	Session *models.Session
}

type ReplaceSessionInput struct {
	// ID of the session to replace or create
	ID string

	// Changes to apply. Nil fields are left as they are.
	Changes models.SessionChanges
}

type ReplaceSessionOutput struct {
	Session *models.Session

	// Created is true when no session existed and one was created
	Created bool
}

type DeleteSessionInput struct {
	ID string
}

type GetSessionInput struct {
	ID string
}

type UpdateSessionInput struct {
	// Session as previously read, with Revision untouched
	Session *models.Session
}
