// Package system provides the real clock implementation.
package system

import (
	"time"

	"github.com/JakeFAU/survey-trends/internal/clock"
)

// Clock implements clock.Clock using time.Now in UTC.
type Clock struct{}

var _ clock.Clock = Clock{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
