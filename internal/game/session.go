// internal/game/session.go
//
// GameSession: one player's guessing game.
// Responsibilities:
//   - Resolve guesses through the Matcher and score them against the hidden target.
//   - Track the ordered guess list, duplicate rejection, and the in-progress -> won transition.
//   - Restart with a fresh target (round counter identifies the current target).
//
// Notes:
//   - A Session has a single writer; callers serialize access (store.Update does this).
//   - No I/O; every method returns immediately.
//   - The target name is never exposed before the round is won.
package game

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/daily"
	"github.com/robalobadob/geoguess/internal/geo"
	"github.com/robalobadob/geoguess/internal/scoring"
)

// Session holds the state of one game.
type Session struct {
	id     string
	engine *Engine
	mode   Mode
	date   string // daily date key, empty in normal mode

	target  geo.RecordID
	guesses []Guess
	seen    map[string]struct{}
	state   State
	round   int

	updatedAt time.Time
}

// begin installs a new target and clears the round.
func (s *Session) begin(target geo.RecordID, date string) {
	s.target = target
	s.date = date
	s.guesses = []Guess{}
	s.seen = make(map[string]struct{})
	s.state = StateInProgress
	s.round++
	s.updatedAt = s.engine.now()

	if ev := log.Debug(); ev.Enabled() {
		rec, _ := s.engine.ix.Record(target)
		ev.Str("session", s.id).Int("round", s.round).Str("target", rec.Name).Msg("game: round started")
	}
}

// SubmitGuess resolves raw, scores it against the target and records it.
//
// Errors (no state change in every case):
//   - ErrGameFinished   the round is already won.
//   - ErrUnknownCountry raw does not resolve to a country.
//   - ErrDuplicateGuess raw resolves to a name already guessed this round.
func (s *Session) SubmitGuess(raw string) (GuessResult, error) {
	if s.state == StateWon {
		return GuessResult{}, ErrGameFinished
	}
	name, ok := s.engine.m.Resolve(raw)
	if !ok {
		return GuessResult{}, ErrUnknownCountry
	}
	if _, dup := s.seen[name]; dup {
		return GuessResult{}, ErrDuplicateGuess
	}
	guessed, ok := s.engine.ix.Lookup(name)
	if !ok {
		return GuessResult{}, ErrUnknownCountry
	}
	target, _ := s.engine.ix.Record(s.target)

	km := scoring.Distance(guessed, target)
	g := Guess{Country: name, DistanceKm: km, Category: scoring.Categorize(km)}
	s.guesses = append(s.guesses, g)
	s.seen[name] = struct{}{}
	if km == 0 {
		s.state = StateWon
	}
	s.updatedAt = s.engine.now()

	return GuessResult{Guess: g, Won: s.state == StateWon, Attempts: len(s.guesses)}, nil
}

// StartNewGame draws a new random target and clears the guesses.
// A daily session becomes a normal one.
func (s *Session) StartNewGame() {
	s.mode = ModeNormal
	s.begin(s.engine.randomTarget(), "")
}

// StartDailyGame restarts the session on the daily country for date.
func (s *Session) StartDailyGame(date time.Time, salt []byte) {
	s.mode = ModeDaily
	s.begin(s.engine.dailyTarget(date, salt), daily.DateKey(date))
}

// ID is the session identifier.
func (s *Session) ID() string { return s.id }

// Mode reports how the current target was chosen.
func (s *Session) Mode() Mode { return s.mode }

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state }

// Won reports whether the current round is won.
func (s *Session) Won() bool { return s.state == StateWon }

// Round counts targets drawn for this session, starting at 1.
func (s *Session) Round() int { return s.round }

// UpdatedAt is the time of the last state change.
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// Guesses returns a copy of the guesses in submission order.
func (s *Session) Guesses() []Guess {
	return append([]Guess{}, s.guesses...)
}

// Target returns the target's name once the round is won.
func (s *Session) Target() (string, bool) {
	if s.state != StateWon {
		return "", false
	}
	rec, _ := s.engine.ix.Record(s.target)
	return rec.Name, true
}

// CapitalLocation returns the target's capital coordinates, if known, without revealing its name.
func (s *Session) CapitalLocation() (geo.LatLng, bool) {
	rec, _ := s.engine.ix.Record(s.target)
	return rec.CapitalLocation()
}

// View returns a presentation snapshot.
func (s *Session) View() View {
	v := View{
		ID:        s.id,
		Mode:      s.mode,
		Date:      s.date,
		Round:     s.round,
		State:     s.state,
		Won:       s.Won(),
		Guesses:   s.Guesses(),
		UpdatedAt: s.updatedAt,
	}
	v.Target, _ = s.Target()
	return v
}
