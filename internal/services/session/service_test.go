package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KirkDiggler/gamenight/internal/models"
	sessionRepo "github.com/KirkDiggler/gamenight/internal/repositories/session"
	repoMocks "github.com/KirkDiggler/gamenight/internal/repositories/session/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SessionServiceTestSuite struct {
	suite.Suite
	mockCtrl       *gomock.Controller
	mockRepo       *repoMocks.MockRepository
	sessionService Service
	ctx            context.Context

	// Test data
	testTime      time.Time
	testSessionID string
	errStore      error

	// Reusable test fixtures
	expectedSession *models.Session
}

func (s *SessionServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockRepo = repoMocks.NewMockRepository(s.mockCtrl)
	s.ctx = context.Background()

	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	s.testSessionID = "game-night"
	s.errStore = errors.New("connection reset")

	s.expectedSession = &models.Session{
		ID:      s.testSessionID,
		Name:    "Game Night",
		Players: []string{"Alice", "Bob"},
		Games: []models.Game{
			{Game: "A", Winner: "Alice", Date: "2024-01-01"},
			{Game: "B", Winner: "Bob", Date: "2024-01-02"},
			{Game: "C", Winner: "Alice", Date: "2024-01-03"},
		},
		CreatedAt: s.testTime,
		UpdatedAt: s.testTime,
		StorageID: "storage-1",
		Revision:  4,
	}

	svc, err := New(&Config{
		SessionRepo: s.mockRepo,
	})
	s.Require().NoError(err)
	s.sessionService = svc
}

func (s *SessionServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}

func (s *SessionServiceTestSuite) TestNewValidatesConfig() {
	_, err := New(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = New(&Config{})
	s.ErrorIs(err, ErrNilSessionRepo)
}

func (s *SessionServiceTestSuite) TestListSessions() {
	s.mockRepo.EXPECT().
		ListSessions(s.ctx, &sessionRepo.ListSessionsInput{}).
		Return(&sessionRepo.ListSessionsOutput{
			Sessions: []*models.Session{s.expectedSession},
		}, nil)

	result, err := s.sessionService.ListSessions(s.ctx, &ListSessionsInput{})
	s.Require().NoError(err)
	s.Equal([]*models.Session{s.expectedSession}, result.Sessions)
}

func (s *SessionServiceTestSuite) TestListSessionsEmpty() {
	s.mockRepo.EXPECT().
		ListSessions(s.ctx, gomock.Any()).
		Return(&sessionRepo.ListSessionsOutput{}, nil)

	result, err := s.sessionService.ListSessions(s.ctx, &ListSessionsInput{})
	s.Require().NoError(err)
	s.NotNil(result.Sessions)
	s.Len(result.Sessions, 0)
}

func (s *SessionServiceTestSuite) TestListSessionsStoreError() {
	s.mockRepo.EXPECT().
		ListSessions(s.ctx, gomock.Any()).
		Return(nil, s.errStore)

	result, err := s.sessionService.ListSessions(s.ctx, &ListSessionsInput{})
	s.Nil(result)
	s.ErrorIs(err, s.errStore)
}

func (s *SessionServiceTestSuite) TestCreateSession() {
	input := &CreateSessionInput{
		ID:      "chess",
		Name:    "Chess Club",
		Players: []string{"Alice", "Bob"},
		Games:   []models.Game{{Game: "Chess", Winner: "Alice", Date: "2024-01-01"}},
	}
	created := &models.Session{
		ID:        "chess",
		Name:      "Chess Club",
		Players:   input.Players,
		Games:     input.Games,
		CreatedAt: s.testTime,
		UpdatedAt: s.testTime,
	}

	s.mockRepo.EXPECT().
		CreateSession(s.ctx, &sessionRepo.CreateSessionInput{
			Session: &models.Session{
				ID:      "chess",
				Name:    "Chess Club",
				Players: input.Players,
				Games:   input.Games,
			},
		}).
		Return(created, nil)

	result, err := s.sessionService.CreateSession(s.ctx, input)
	s.Require().NoError(err)
	s.Equal(created, result.Session)
}

func (s *SessionServiceTestSuite) TestCreateSessionDuplicateID() {
	s.mockRepo.EXPECT().
		CreateSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionExists)

	_, err := s.sessionService.CreateSession(s.ctx, &CreateSessionInput{ID: "chess", Name: "Chess"})
	s.ErrorIs(err, ErrSessionExists)
	s.Contains(err.Error(), "chess")
}

func (s *SessionServiceTestSuite) TestCreateSessionValidationError() {
	s.mockRepo.EXPECT().
		CreateSession(s.ctx, gomock.Any()).
		Return(nil, &models.ValidationError{Fields: []string{"name"}})

	_, err := s.sessionService.CreateSession(s.ctx, &CreateSessionInput{ID: "chess"})
	s.ErrorIs(err, ErrInvalidSession)
	s.EqualError(err, "session validation failed: name is required")
}

func (s *SessionServiceTestSuite) TestCreateSessionStoreError() {
	s.mockRepo.EXPECT().
		CreateSession(s.ctx, gomock.Any()).
		Return(nil, s.errStore)

	_, err := s.sessionService.CreateSession(s.ctx, &CreateSessionInput{ID: "chess", Name: "Chess"})
	s.ErrorIs(err, s.errStore)
	s.NotErrorIs(err, ErrInvalidSession)
	s.NotErrorIs(err, ErrSessionExists)
}

func (s *SessionServiceTestSuite) TestCreateSessionNilInput() {
	_, err := s.sessionService.CreateSession(s.ctx, nil)
	s.ErrorIs(err, ErrNilInput)
}

func (s *SessionServiceTestSuite) TestUpsertSessionUpdatesExisting() {
	name := "Renamed"
	changes := models.SessionChanges{Name: &name}

	s.mockRepo.EXPECT().
		ReplaceSession(s.ctx, &sessionRepo.ReplaceSessionInput{
			ID:      s.testSessionID,
			Changes: changes,
		}).
		Return(&sessionRepo.ReplaceSessionOutput{
			Session: s.expectedSession,
			Created: false,
		}, nil)

	result, err := s.sessionService.UpsertSession(s.ctx, &UpsertSessionInput{
		ID:      s.testSessionID,
		Changes: changes,
	})
	s.Require().NoError(err)
	s.Equal(UpsertOutcomeUpdated, result.Outcome)
	s.Equal(s.expectedSession, result.Session)
}

func (s *SessionServiceTestSuite) TestUpsertSessionCreatesMissing() {
	s.mockRepo.EXPECT().
		ReplaceSession(s.ctx, gomock.Any()).
		Return(&sessionRepo.ReplaceSessionOutput{
			Session: &models.Session{ID: "new-id"},
			Created: true,
		}, nil)

	result, err := s.sessionService.UpsertSession(s.ctx, &UpsertSessionInput{ID: "new-id"})
	s.Require().NoError(err)
	s.Equal(UpsertOutcomeCreated, result.Outcome)
	s.Equal("new-id", result.Session.ID)
}

func (s *SessionServiceTestSuite) TestUpsertSessionStoreError() {
	s.mockRepo.EXPECT().
		ReplaceSession(s.ctx, gomock.Any()).
		Return(nil, s.errStore)

	_, err := s.sessionService.UpsertSession(s.ctx, &UpsertSessionInput{ID: s.testSessionID})
	s.ErrorIs(err, s.errStore)
	s.NotErrorIs(err, ErrConcurrentModification)
}

func (s *SessionServiceTestSuite) TestDeleteSession() {
	s.mockRepo.EXPECT().
		DeleteSession(s.ctx, &sessionRepo.DeleteSessionInput{ID: s.testSessionID}).
		Return(s.expectedSession, nil)

	result, err := s.sessionService.DeleteSession(s.ctx, &DeleteSessionInput{ID: s.testSessionID})
	s.Require().NoError(err)
	s.Equal(s.expectedSession, result.Session)
}

func (s *SessionServiceTestSuite) TestDeleteSessionNotFound() {
	s.mockRepo.EXPECT().
		DeleteSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.sessionService.DeleteSession(s.ctx, &DeleteSessionInput{ID: "missing"})
	s.ErrorIs(err, ErrSessionNotFound)
	s.EqualError(err, "Session not found")
}

func (s *SessionServiceTestSuite) TestDeleteSessionStoreError() {
	s.mockRepo.EXPECT().
		DeleteSession(s.ctx, gomock.Any()).
		Return(nil, s.errStore)

	_, err := s.sessionService.DeleteSession(s.ctx, &DeleteSessionInput{ID: s.testSessionID})
	s.ErrorIs(err, s.errStore)
	s.NotErrorIs(err, ErrSessionNotFound)
}

func (s *SessionServiceTestSuite) TestDeleteGame() {
	s.mockRepo.EXPECT().
		GetSession(s.ctx, &sessionRepo.GetSessionInput{ID: s.testSessionID}).
		Return(s.expectedSession.Clone(), nil)

	s.mockRepo.EXPECT().
		UpdateSession(s.ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, input *sessionRepo.UpdateSessionInput) (*models.Session, error) {
			// The read revision is handed back untouched for the conditional write
			s.Equal(int64(4), input.Session.Revision)
			s.Equal([]string{"A", "C"}, gameNames(input.Session.Games))
			s.Equal([]string{"Alice", "Bob"}, input.Session.Players)

			saved := input.Session.Clone()
			saved.Revision++
			return saved, nil
		})

	result, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{
		SessionID: s.testSessionID,
		Index:     1,
	})
	s.Require().NoError(err)
	s.Equal([]string{"A", "C"}, gameNames(result.Session.Games))
	s.Equal(int64(5), result.Session.Revision)
}

func (s *SessionServiceTestSuite) TestDeleteGameAtEveryIndex() {
	original := gameNames(s.expectedSession.Games)

	for i := range original {
		s.mockRepo.EXPECT().
			GetSession(s.ctx, gomock.Any()).
			Return(s.expectedSession.Clone(), nil)
		s.mockRepo.EXPECT().
			UpdateSession(s.ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, input *sessionRepo.UpdateSessionInput) (*models.Session, error) {
				return input.Session, nil
			})

		result, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{
			SessionID: s.testSessionID,
			Index:     i,
		})
		s.Require().NoError(err)

		want := append(append([]string{}, original[:i]...), original[i+1:]...)
		s.Equal(want, gameNames(result.Session.Games), "index %d", i)
	}

	// The fixture itself is never mutated
	s.Equal(original, gameNames(s.expectedSession.Games))
}

func (s *SessionServiceTestSuite) TestDeleteGameInvalidIndex() {
	for _, index := range []int{-1, 3, 42} {
		s.mockRepo.EXPECT().
			GetSession(s.ctx, gomock.Any()).
			Return(s.expectedSession.Clone(), nil)

		// UpdateSession is not expected: nothing may be written
		_, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{
			SessionID: s.testSessionID,
			Index:     index,
		})
		s.ErrorIs(err, ErrInvalidGameIndex, "index %d", index)
		s.EqualError(err, "Invalid game index")
	}
}

func (s *SessionServiceTestSuite) TestDeleteGameOnEmptySession() {
	empty := &models.Session{ID: "empty", Name: "Empty", Games: []models.Game{}}
	s.mockRepo.EXPECT().
		GetSession(s.ctx, gomock.Any()).
		Return(empty, nil)

	_, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{SessionID: "empty", Index: 0})
	s.ErrorIs(err, ErrInvalidGameIndex)
}

func (s *SessionServiceTestSuite) TestDeleteGameSessionNotFound() {
	s.mockRepo.EXPECT().
		GetSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{SessionID: "missing", Index: 0})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *SessionServiceTestSuite) TestDeleteGameConcurrentModification() {
	s.mockRepo.EXPECT().
		GetSession(s.ctx, gomock.Any()).
		Return(s.expectedSession.Clone(), nil)
	s.mockRepo.EXPECT().
		UpdateSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrRevisionMismatch)

	_, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{SessionID: s.testSessionID, Index: 0})
	s.ErrorIs(err, ErrConcurrentModification)
}

func (s *SessionServiceTestSuite) TestDeleteGameDeletedWhileEditing() {
	s.mockRepo.EXPECT().
		GetSession(s.ctx, gomock.Any()).
		Return(s.expectedSession.Clone(), nil)
	s.mockRepo.EXPECT().
		UpdateSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{SessionID: s.testSessionID, Index: 0})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *SessionServiceTestSuite) TestDeleteGameStoreError() {
	s.mockRepo.EXPECT().
		GetSession(s.ctx, gomock.Any()).
		Return(nil, s.errStore)

	_, err := s.sessionService.DeleteGame(s.ctx, &DeleteGameInput{SessionID: s.testSessionID, Index: 0})
	s.ErrorIs(err, s.errStore)
}

func gameNames(games []models.Game) []string {
	names := make([]string, 0, len(games))
	for _, g := range games {
		names = append(names, g.Game)
	}
	return names
}
