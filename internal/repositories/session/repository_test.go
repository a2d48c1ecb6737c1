package session

import (
	"context"
	"fmt"
	"time"

	clockMocks "github.com/KirkDiggler/gamenight/internal/common/clock/mocks"
	uuidMocks "github.com/KirkDiggler/gamenight/internal/common/uuid/mocks"
	"github.com/KirkDiggler/gamenight/internal/models"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// repositoryTestSuite holds the behavior every Repository backend must share.
// Backend suites embed it and assign repo in their SetupTest.
type repositoryTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockClock *clockMocks.MockClock
	mockUUID  *uuidMocks.MockUUID
	repo      Repository
	ctx       context.Context
	testNow   time.Time
	uuidCount int
}

func (s *repositoryTestSuite) setupMocks() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.mockUUID = uuidMocks.NewMockUUID(s.mockCtrl)
	s.ctx = context.Background()

	s.testNow = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
	s.uuidCount = 0

	s.mockClock.EXPECT().Now().DoAndReturn(func() time.Time {
		return s.testNow
	}).AnyTimes()
	s.mockUUID.EXPECT().NewUUID().DoAndReturn(func() string {
		s.uuidCount++
		return fmt.Sprintf("storage-%d", s.uuidCount)
	}).AnyTimes()
}

func (s *repositoryTestSuite) chessNight() *models.Session {
	return &models.Session{
		ID:      "chess-night",
		Name:    "Chess Night",
		Players: []string{"Alice", "Bob"},
		Games: []models.Game{
			{Game: "Chess", Winner: "Alice", Date: "2024-01-01"},
		},
	}
}

func (s *repositoryTestSuite) createSession(session *models.Session) *models.Session {
	created, err := s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: session})
	s.Require().NoError(err)
	return created
}

func (s *repositoryTestSuite) listSessions() []*models.Session {
	result, err := s.repo.ListSessions(s.ctx, &ListSessionsInput{})
	s.Require().NoError(err)
	s.Require().NotNil(result)
	return result.Sessions
}

func (s *repositoryTestSuite) TestListSessionsEmpty() {
	sessions := s.listSessions()
	s.NotNil(sessions)
	s.Len(sessions, 0)
}

func (s *repositoryTestSuite) TestCreateAndListRoundTrip() {
	created := s.createSession(s.chessNight())

	s.Equal("storage-1", created.StorageID)
	s.Equal(int64(1), created.Revision)
	s.True(s.testNow.Equal(created.CreatedAt))
	s.True(s.testNow.Equal(created.UpdatedAt))

	sessions := s.listSessions()
	s.Require().Len(sessions, 1)

	got := sessions[0]
	s.Equal("chess-night", got.ID)
	s.Equal("Chess Night", got.Name)
	s.Equal([]string{"Alice", "Bob"}, got.Players)
	s.Equal([]models.Game{{Game: "Chess", Winner: "Alice", Date: "2024-01-01"}}, got.Games)
	s.True(s.testNow.Equal(got.CreatedAt))
	s.True(s.testNow.Equal(got.UpdatedAt))
}

func (s *repositoryTestSuite) TestListSessionsOrderedByCreation() {
	s.createSession(&models.Session{ID: "b-session", Name: "First"})
	s.testNow = s.testNow.Add(time.Minute)
	s.createSession(&models.Session{ID: "a-session", Name: "Second"})

	sessions := s.listSessions()
	s.Require().Len(sessions, 2)
	s.Equal("b-session", sessions[0].ID)
	s.Equal("a-session", sessions[1].ID)
}

func (s *repositoryTestSuite) TestCreateEmptySessionRendersEmptyCollections() {
	created := s.createSession(&models.Session{ID: "empty", Name: "Empty"})

	s.NotNil(created.Players)
	s.NotNil(created.Games)

	got, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "empty"})
	s.Require().NoError(err)
	s.Equal([]string{}, got.Players)
	s.Equal([]models.Game{}, got.Games)
}

func (s *repositoryTestSuite) TestCreateDuplicateIDFails() {
	s.createSession(s.chessNight())

	duplicate := &models.Session{ID: "chess-night", Name: "Imposter"}
	_, err := s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: duplicate})
	s.Require().Error(err)
	s.ErrorIs(err, ErrSessionExists)

	sessions := s.listSessions()
	s.Require().Len(sessions, 1)
	s.Equal("Chess Night", sessions[0].Name)
	s.Equal([]string{"Alice", "Bob"}, sessions[0].Players)
}

func (s *repositoryTestSuite) TestCreateValidatesRequiredFields() {
	_, err := s.repo.CreateSession(s.ctx, &CreateSessionInput{
		Session: &models.Session{ID: "no-name"},
	})
	var verr *models.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"name"}, verr.Fields)

	_, err = s.repo.CreateSession(s.ctx, &CreateSessionInput{
		Session: &models.Session{
			ID:   "bad-game",
			Name: "Bad Game",
			Games: []models.Game{
				{Game: "Chess", Winner: "Alice", Date: "2024-01-01"},
				{Game: "Go", Date: "2024-01-02"},
			},
		},
	})
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"games[1].winner"}, verr.Fields)

	s.Len(s.listSessions(), 0)
}

func (s *repositoryTestSuite) TestReplaceCreatesMissingSession() {
	name := "Catan Club"
	result, err := s.repo.ReplaceSession(s.ctx, &ReplaceSessionInput{
		ID:      "catan",
		Changes: models.SessionChanges{Name: &name},
	})
	s.Require().NoError(err)
	s.True(result.Created)
	s.Equal("catan", result.Session.ID)
	s.Equal("Catan Club", result.Session.Name)
	s.Equal([]string{}, result.Session.Players)
	s.Equal(int64(1), result.Session.Revision)

	got, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "catan"})
	s.Require().NoError(err)
	s.Equal("Catan Club", got.Name)
	s.Len(s.listSessions(), 1)
}

func (s *repositoryTestSuite) TestReplaceUpdatesExistingSession() {
	created := s.createSession(s.chessNight())
	createdAt := created.CreatedAt
	s.testNow = s.testNow.Add(time.Hour)

	name := "Chess Night II"
	players := []string{"Carol"}
	games := []models.Game{{Game: "Go", Winner: "Carol", Date: "2024-02-01"}}
	result, err := s.repo.ReplaceSession(s.ctx, &ReplaceSessionInput{
		ID: "chess-night",
		Changes: models.SessionChanges{
			Name:    &name,
			Players: &players,
			Games:   &games,
		},
	})
	s.Require().NoError(err)
	s.False(result.Created)

	got := result.Session
	s.Equal("chess-night", got.ID)
	s.Equal("Chess Night II", got.Name)
	s.Equal([]string{"Carol"}, got.Players)
	s.Equal(games, got.Games)
	s.Equal(created.StorageID, got.StorageID)
	s.Equal(int64(2), got.Revision)
	s.True(createdAt.Equal(got.CreatedAt))
	s.True(s.testNow.Equal(got.UpdatedAt))

	s.Len(s.listSessions(), 1)
}

func (s *repositoryTestSuite) TestReplaceLeavesUnsuppliedFields() {
	s.createSession(s.chessNight())

	name := "Renamed"
	result, err := s.repo.ReplaceSession(s.ctx, &ReplaceSessionInput{
		ID:      "chess-night",
		Changes: models.SessionChanges{Name: &name},
	})
	s.Require().NoError(err)
	s.Equal("Renamed", result.Session.Name)
	s.Equal([]string{"Alice", "Bob"}, result.Session.Players)
	s.Len(result.Session.Games, 1)
}

func (s *repositoryTestSuite) TestDeleteSession() {
	s.createSession(s.chessNight())
	s.createSession(&models.Session{ID: "other", Name: "Other"})

	removed, err := s.repo.DeleteSession(s.ctx, &DeleteSessionInput{ID: "chess-night"})
	s.Require().NoError(err)
	s.Equal("chess-night", removed.ID)
	s.Equal("Chess Night", removed.Name)

	sessions := s.listSessions()
	s.Require().Len(sessions, 1)
	s.Equal("other", sessions[0].ID)

	_, err = s.repo.DeleteSession(s.ctx, &DeleteSessionInput{ID: "chess-night"})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *repositoryTestSuite) TestGetSessionNotFound() {
	_, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "missing"})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *repositoryTestSuite) TestUpdateSession() {
	s.createSession(&models.Session{
		ID:   "trio",
		Name: "Trio",
		Games: []models.Game{
			{Game: "A", Winner: "Alice", Date: "d1"},
			{Game: "B", Winner: "Bob", Date: "d2"},
			{Game: "C", Winner: "Carol", Date: "d3"},
		},
	})
	s.testNow = s.testNow.Add(time.Minute)

	current, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "trio"})
	s.Require().NoError(err)

	current.Games = append(current.Games[:1], current.Games[2:]...)
	updated, err := s.repo.UpdateSession(s.ctx, &UpdateSessionInput{Session: current})
	s.Require().NoError(err)
	s.Equal(int64(2), updated.Revision)
	s.Equal([]string{"A", "C"}, gameNames(updated.Games))
	s.True(s.testNow.Equal(updated.UpdatedAt))

	got, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "trio"})
	s.Require().NoError(err)
	s.Equal([]string{"A", "C"}, gameNames(got.Games))
}

func (s *repositoryTestSuite) TestUpdateSessionRejectsStaleRevision() {
	s.createSession(s.chessNight())

	first, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "chess-night"})
	s.Require().NoError(err)
	second, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "chess-night"})
	s.Require().NoError(err)

	first.Games = []models.Game{}
	_, err = s.repo.UpdateSession(s.ctx, &UpdateSessionInput{Session: first})
	s.Require().NoError(err)

	second.Name = "Lost update"
	_, err = s.repo.UpdateSession(s.ctx, &UpdateSessionInput{Session: second})
	s.ErrorIs(err, ErrRevisionMismatch)

	got, err := s.repo.GetSession(s.ctx, &GetSessionInput{ID: "chess-night"})
	s.Require().NoError(err)
	s.Equal("Chess Night", got.Name)
	s.Len(got.Games, 0)
}

func (s *repositoryTestSuite) TestUpdateSessionNotFound() {
	_, err := s.repo.UpdateSession(s.ctx, &UpdateSessionInput{
		Session: &models.Session{ID: "missing", Name: "Missing", Revision: 1},
	})
	s.ErrorIs(err, ErrSessionNotFound)
}

func gameNames(games []models.Game) []string {
	names := make([]string, 0, len(games))
	for _, g := range games {
		names = append(names, g.Game)
	}
	return names
}
