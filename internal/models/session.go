package models

import (
	"time"
)

// Session represents a named group of players and their game history
type Session struct {
	// ID is the externally supplied identifier. All lookups address this field.
	ID string `json:"id" validate:"required"`

	// Name is the display name of the session
	Name string `json:"name" validate:"required"`

	// Players holds player names in turn order. Duplicates are allowed.
	Players []string `json:"players"`

	// Games holds the played games in play order
	Games []Game `json:"games" validate:"dive"`

	// CreatedAt is when the store first persisted the session
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the store last modified the session
	UpdatedAt time.Time `json:"updatedAt"`

	// StorageID is assigned by the store on creation and never exposed
	StorageID string `json:"-"`

	// Revision is bumped by the store on every write
	Revision int64 `json:"-"`
}

// SessionChanges holds the fields an upsert may set.
// A nil field leaves the stored value untouched.
type SessionChanges struct {
	Name    *string   `json:"name"`
	Players *[]string `json:"players"`
	Games   *[]Game   `json:"games"`
}

// Apply writes the non-nil changes onto the session
func (c SessionChanges) Apply(s *Session) {
	if c.Name != nil {
		s.Name = *c.Name
	}
	if c.Players != nil {
		s.Players = append([]string{}, (*c.Players)...)
	}
	if c.Games != nil {
		s.Games = append([]Game{}, (*c.Games)...)
	}
}

// Normalize replaces nil collections with empty ones so they render as [] in JSON
func (s *Session) Normalize() {
	if s.Players == nil {
		s.Players = []string{}
	}
	if s.Games == nil {
		s.Games = []Game{}
	}
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = append([]string{}, s.Players...)
	out.Games = append([]Game{}, s.Games...)
	return &out
}
