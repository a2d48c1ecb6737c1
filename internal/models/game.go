package models

// Game is one completed match within a session.
// Games have no identity of their own; they are addressed by their
// position in Session.Games.
type Game struct {
	// Game names the game that was played
	Game string `json:"game" validate:"required"`

	// Winner names the winning player
	Winner string `json:"winner" validate:"required"`

	// Date is the text-encoded date the game was played on. It is stored as given.
	Date string `json:"date" validate:"required"`
}
