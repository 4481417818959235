// internal/game/types.go
//
// Core type definitions for the country guessing game.
// Defines:
//   - State: lifecycle of one round (in-progress -> won).
//   - Mode:  how the target was chosen (random or daily).
//   - Guess: one accepted guess with its distance and category.
//   - View:  read-only snapshot of a session for presentation.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/geoguess/internal/scoring"
)

// State is the lifecycle state of the current round.
type State string

const (
	StateInProgress State = "in-progress"
	StateWon        State = "won"
)

// Mode records how the session's target was chosen.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDaily  Mode = "daily"
)

// ParseMode maps request input to a Mode; unknown or empty input is ModeNormal.
func ParseMode(s string) Mode {
	if Mode(s) == ModeDaily {
		return ModeDaily
	}
	return ModeNormal
}

// Guess is one accepted guess, in submission order.
type Guess struct {
	Country    string           `json:"country"`    // canonical key the input resolved to
	DistanceKm int              `json:"distanceKm"` // centroid distance to the target
	Category   scoring.Category `json:"category"`
}

// GuessResult is returned by SubmitGuess.
type GuessResult struct {
	Guess
	Won      bool `json:"won"`
	Attempts int  `json:"attempts"`
}

// View is a snapshot of a session. Target is set only once the round is won.
type View struct {
	ID        string    `json:"gameId"`
	Mode      Mode      `json:"mode"`
	Date      string    `json:"date,omitempty"`
	Round     int       `json:"round"`
	State     State     `json:"state"`
	Won       bool      `json:"won"`
	Guesses   []Guess   `json:"guesses"`
	Target    string    `json:"target,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Errors returned by SubmitGuess and engine constructors.
var (
	ErrUnknownCountry = errors.New("unknown country")
	ErrDuplicateGuess = errors.New("duplicate guess")
	ErrGameFinished   = errors.New("game finished")
)
