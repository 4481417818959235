// internal/game/engine.go
//
// Engine: owns the immutable GeoIndex and Matcher and creates sessions.
// Responsibilities:
//   - Explicit initialization (no package globals); built once in main and shared read-only.
//   - Target selection: uniform over unique records (aliases never weight the draw),
//     fixed by name (tests/debugging), or deterministic per UTC date (daily mode).
//
// Notes:
//   - The default picker uses crypto/rand.
//   - Session IDs are UUIDv4 strings.
package game

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/daily"
	"github.com/robalobadob/geoguess/internal/geo"
	"github.com/robalobadob/geoguess/internal/match"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// Engine is safe for concurrent use. Sessions it creates are not.
type Engine struct {
	ix    *geo.Index
	m     *match.Matcher
	pick  Picker
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPicker replaces the random target picker.
func WithPicker(p Picker) Option {
	return func(e *Engine) { e.pick = p }
}

// WithClock replaces time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine over ix and m.
func NewEngine(ix *geo.Index, m *match.Matcher, opts ...Option) *Engine {
	e := &Engine{
		ix:    ix,
		m:     m,
		pick:  cryptoPick,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index exposes the engine's index (read-only).
func (e *Engine) Index() *geo.Index { return e.ix }

// Matcher exposes the engine's matcher (read-only).
func (e *Engine) Matcher() *match.Matcher { return e.m }

// NewSession starts a session with a random target.
func (e *Engine) NewSession() *Session {
	s := e.newSession(ModeNormal)
	s.begin(e.randomTarget(), "")
	return s
}

// NewSessionWithTarget starts a session whose target is the record keyed by name.
func (e *Engine) NewSessionWithTarget(name string) (*Session, error) {
	id, ok := e.ix.ID(name)
	if !ok {
		return nil, ErrUnknownCountry
	}
	s := e.newSession(ModeNormal)
	s.begin(id, "")
	return s, nil
}

// NewDailySession starts a session whose target is the daily country for date.
func (e *Engine) NewDailySession(date time.Time, salt []byte) *Session {
	s := e.newSession(ModeDaily)
	s.begin(e.dailyTarget(date, salt), daily.DateKey(date))
	return s
}

// DailyTarget returns the canonical name of the daily country for date.
func (e *Engine) DailyTarget(date time.Time, salt []byte) string {
	rec, _ := e.ix.Record(e.dailyTarget(date, salt))
	return rec.Name
}

func (e *Engine) newSession(mode Mode) *Session {
	return &Session{
		id:     e.newID(),
		engine: e,
		mode:   mode,
	}
}

func (e *Engine) randomTarget() geo.RecordID {
	n := e.ix.Len()
	i := e.pick(n)
	if i < 0 || i >= n {
		i = 0
	}
	return geo.RecordID(i)
}

func (e *Engine) dailyTarget(date time.Time, salt []byte) geo.RecordID {
	return geo.RecordID(daily.TargetIndex(date, salt, e.ix.Len()))
}

// cryptoPick is the default Picker.
func cryptoPick(n int) int {
	if n <= 1 {
		return 0
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		log.Warn().Err(err).Msg("game: crypto/rand failed, using first record")
		return 0
	}
	return int(nBig.Int64())
}
