package clock

import "time"

//go:generate mockgen -package=mocks -destination=mocks/mock_clock.go github.com/KirkDiggler/gamenight/internal/common/clock Clock

// Clock is the time source stores use to stamp createdAt and updatedAt
type Clock interface {
	Now() time.Time
}

// DefaultClock reads the system clock
type DefaultClock struct{}

// New returns the system clock
func New() *DefaultClock {
	return &DefaultClock{}
}

// Now returns the current UTC time truncated to milliseconds, the precision
// every store keeps timestamps at
func (c *DefaultClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
