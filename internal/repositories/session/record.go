package session

import (
	"slices"
	"strings"
	"time"

	"github.com/KirkDiggler/gamenight/internal/models"
)

// sessionRecord is the stored form of a session, including the fields the
// API never renders
type sessionRecord struct {
	StorageID string        `json:"storageId"`
	Revision  int64         `json:"revision"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Players   []string      `json:"players"`
	Games     []models.Game `json:"games"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func recordFromModel(s *models.Session) *sessionRecord {
	return &sessionRecord{
		StorageID: s.StorageID,
		Revision:  s.Revision,
		ID:        s.ID,
		Name:      s.Name,
		Players:   append([]string{}, s.Players...),
		Games:     append([]models.Game{}, s.Games...),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r *sessionRecord) toModel() *models.Session {
	s := &models.Session{
		ID:        r.ID,
		Name:      r.Name,
		Players:   r.Players,
		Games:     r.Games,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		StorageID: r.StorageID,
		Revision:  r.Revision,
	}
	s.Normalize()
	return s
}

// newRecord starts a first-revision record for a session that is about to be created
func newRecord(s *models.Session, storageID string, now time.Time) *sessionRecord {
	record := recordFromModel(s)
	record.StorageID = storageID
	record.Revision = 1
	record.CreatedAt = now
	record.UpdatedAt = now
	return record
}

// sortSessions orders sessions by creation time, then ID
func sortSessions(sessions []*models.Session) {
	slices.SortStableFunc(sessions, func(a, b *models.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
