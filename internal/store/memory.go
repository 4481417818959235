// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is the only session store: sessions are ephemeral and lost when the process restarts.
//
// Characteristics:
//   - Stores *game.Session objects keyed by session ID in a map.
//   - Concurrency-safe via RWMutex for the map, plus one mutex per session so
//     Update gives each session a single writer.
//   - Tracks last access per session; Sweep drops sessions idle for longer than a cutoff.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/geoguess/internal/game"
)

// ErrNotFound is returned for unknown or swept session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID. The returned session must only be
	// mutated inside Update.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Update runs fn with exclusive access to the session.
	Update(ctx context.Context, id string, fn func(*game.Session) error) error

	// Sweep removes sessions not accessed within idle and reports how many.
	Sweep(idle time.Duration) int

	// Len reports the number of stored sessions.
	Len() int
}

type entry struct {
	mu       sync.Mutex // serializes Update on this session
	sess     *game.Session
	lastSeen time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex      // guards sessions map and lastSeen
	sessions map[string]*entry // keyed by Session.ID()
	now      func() time.Time
	onEvict  []func(id string)
}

// Option configures the memory store.
type Option func(*memory)

// WithOnEvict registers fn to be called with the ID of every swept session.
func WithOnEvict(fn func(id string)) Option {
	return func(m *memory) { m.onEvict = append(m.onEvict, fn) }
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore(opts ...Option) Store {
	m := newMemory(time.Now)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newMemory(now func() time.Time) *memory {
	return &memory{sessions: make(map[string]*entry), now: now}
}

// Save adds or updates the session in the map.
func (m *memory) Save(ctx context.Context, s *game.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[s.ID()]; ok {
		e.sess = s
		e.lastSeen = m.now()
		return nil
	}
	m.sessions[s.ID()] = &entry{sess: s, lastSeen: m.now()}
	return nil
}

// Get looks up a session by ID.
func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	e, err := m.touch(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.sess, nil
}

// Update locks the session for the duration of fn.
func (m *memory) Update(ctx context.Context, id string, fn func(*game.Session) error) error {
	e, err := m.touch(ctx, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(e.sess)
}

func (m *memory) touch(ctx context.Context, id string) (*entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.now()
	return e, nil
}

// Sweep deletes sessions whose last access is older than idle.
// Eviction hooks run after the map lock is released.
func (m *memory) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var removed []string
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	m.mu.Unlock()

	for _, id := range removed {
		for _, fn := range m.onEvict {
			fn(id)
		}
	}
	return len(removed)
}

// Len reports the number of stored sessions.
func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
