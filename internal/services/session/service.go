package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/gamenight/internal/models"
	sessionRepo "github.com/KirkDiggler/gamenight/internal/repositories/session"
)

// service implements the Service interface
type service struct {
	sessionRepo sessionRepo.Repository
	log         zerolog.Logger
}

// New creates a new session service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.SessionRepo == nil {
		return nil, ErrNilSessionRepo
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &service{
		sessionRepo: cfg.SessionRepo,
		log:         log.With().Str("component", "session-service").Logger(),
	}, nil
}

// storeError logs an unexpected repository failure and wraps it for the caller
func (s *service) storeError(op, sessionID string, err error) error {
	event := s.log.Error().Err(err).Str("op", op)
	if sessionID != "" {
		event = event.Str("session_id", sessionID)
	}
	event.Msg("session store failure")

	return fmt.Errorf("failed to %s: %w", op, err)
}

// ListSessions returns every session in the store
func (s *service) ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	result, err := s.sessionRepo.ListSessions(ctx, &sessionRepo.ListSessionsInput{})
	if err != nil {
		return nil, s.storeError("list sessions", "", err)
	}

	sessions := result.Sessions
	if sessions == nil {
		sessions = []*models.Session{}
	}

	return &ListSessionsOutput{
		Sessions: sessions,
	}, nil
}

// CreateSession persists a new session. Missing fields and duplicate IDs are
// rejected by the store.
func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	created, err := s.sessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{
		Session: &models.Session{
			ID:      input.ID,
			Name:    input.Name,
			Players: input.Players,
			Games:   input.Games,
		},
	})
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			return nil, fmt.Errorf("%w: %s", ErrInvalidSession, verr.Error())
		case errors.Is(err, sessionRepo.ErrSessionExists):
			return nil, fmt.Errorf("%w: %s", ErrSessionExists, input.ID)
		default:
			return nil, s.storeError("create session", input.ID, err)
		}
	}

	return &CreateSessionOutput{
		Session: created,
	}, nil
}

// UpsertSession applies changes to the session with the given ID, or creates it
func (s *service) UpsertSession(ctx context.Context, input *UpsertSessionInput) (*UpsertSessionOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	result, err := s.sessionRepo.ReplaceSession(ctx, &sessionRepo.ReplaceSessionInput{
		ID:      input.ID,
		Changes: input.Changes,
	})
	if err != nil {
		return nil, s.storeError("upsert session", input.ID, err)
	}

	outcome := UpsertOutcomeUpdated
	if result.Created {
		outcome = UpsertOutcomeCreated
	}

	return &UpsertSessionOutput{
		Session: result.Session,
		Outcome: outcome,
	}, nil
}

// DeleteSession removes a session permanently
func (s *service) DeleteSession(ctx context.Context, input *DeleteSessionInput) (*DeleteSessionOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	removed, err := s.sessionRepo.DeleteSession(ctx, &sessionRepo.DeleteSessionInput{
		ID: input.ID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, s.storeError("delete session", input.ID, err)
	}

	return &DeleteSessionOutput{
		Session: removed,
	}, nil
}

// DeleteGame removes the game at the given index. The save is conditional on
// the revision that was read, so a concurrent write fails with
// ErrConcurrentModification instead of being overwritten.
func (s *service) DeleteGame(ctx context.Context, input *DeleteGameInput) (*DeleteGameOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	session, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		ID: input.SessionID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, s.storeError("get session", input.SessionID, err)
	}

	if input.Index < 0 || input.Index >= len(session.Games) {
		return nil, ErrInvalidGameIndex
	}

	session.Games = removeGame(session.Games, input.Index)

	updated, err := s.sessionRepo.UpdateSession(ctx, &sessionRepo.UpdateSessionInput{
		Session: session,
	})
	if err != nil {
		switch {
		case errors.Is(err, sessionRepo.ErrSessionNotFound):
			// Deleted after we read it
			return nil, ErrSessionNotFound
		case errors.Is(err, sessionRepo.ErrRevisionMismatch):
			return nil, ErrConcurrentModification
		default:
			return nil, s.storeError("delete game", input.SessionID, err)
		}
	}

	return &DeleteGameOutput{
		Session: updated,
	}, nil
}

// removeGame returns a new slice without the game at index
func removeGame(games []models.Game, index int) []models.Game {
	out := make([]models.Game, 0, len(games)-1)
	out = append(out, games[:index]...)
	return append(out, games[index+1:]...)
}
