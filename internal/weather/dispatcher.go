// internal/weather/dispatcher.go
//
// Round-aware forecast dispatch.
// Responsibilities:
//   - Keep at most one live round of forecast requests per session.
//   - Remember the newest round seen per session; requests for an older round
//     return ErrStale, including ones that arrive after the restart.
//   - Cancel requests for an older round when a newer round asks, or on Invalidate;
//     cancelled requests return ErrStale and never a result.
//   - Collapse identical upstream requests (same location) with singleflight.
//
// Notes:
//   - The shared upstream call is detached from any single caller's context; the
//     client's own timeout bounds it.
package weather

import (
	"context"
	"errors"
	"sync"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrStale is returned when the request was superseded by a newer round or invalidated.
var ErrStale = errors.New("forecast superseded")

// Fetcher fetches one forecast. *Client implements it.
type Fetcher interface {
	FetchForecast(ctx context.Context, lat, lng float64) (*Forecast, error)
}

type slot struct {
	round  int
	ctx    context.Context
	cancel context.CancelFunc
	refs   int
}

// Dispatcher serves forecasts per (session, round).
type Dispatcher struct {
	f     Fetcher
	group singleflight.Group

	mu    sync.Mutex
	slots map[string]*slot // keyed by session ID
	live  map[string]int   // newest round seen per session
}

// NewDispatcher wraps f.
func NewDispatcher(f Fetcher) *Dispatcher {
	return &Dispatcher{f: f, slots: make(map[string]*slot), live: make(map[string]int)}
}

// Forecast returns the forecast at (lat, lng) for session sid in the given round.
//
// Errors:
//   - ErrStale  a newer round started (or Invalidate was called) before the result arrived,
//     or round is already older than the session's live round.
//   - ctx.Err() the caller gave up.
//   - upstream errors from the Fetcher.
func (d *Dispatcher) Forecast(ctx context.Context, sid string, round int, lat, lng float64) (*Forecast, error) {
	s, err := d.acquire(sid, round)
	if err != nil {
		return nil, err
	}
	defer d.release(sid, s)

	key := geohash.Encode(lat, lng)
	ch := d.group.DoChan(key, func() (any, error) {
		return d.f.FetchForecast(context.WithoutCancel(ctx), lat, lng)
	})

	select {
	case <-s.ctx.Done():
		log.Debug().Str("session", sid).Int("round", round).Msg("weather: forecast superseded")
		return nil, ErrStale
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if s.ctx.Err() != nil {
			return nil, ErrStale
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Forecast), nil
	}
}

// Invalidate records round as the live round of sid and cancels every pending
// request of an older round. Later requests for an older round are stale.
func (d *Dispatcher) Invalidate(sid string, round int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if round > d.live[sid] {
		d.live[sid] = round
	}
	if s, ok := d.slots[sid]; ok && s.round < d.live[sid] {
		s.cancel()
		delete(d.slots, sid)
	}
}

// Forget drops everything known about sid. Called when the session is removed.
func (d *Dispatcher) Forget(sid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.slots[sid]; ok {
		s.cancel()
		delete(d.slots, sid)
	}
	delete(d.live, sid)
}

// Pending reports the number of sessions with requests in flight.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.slots)
}

func (d *Dispatcher) acquire(sid string, round int) (*slot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if round < d.live[sid] {
		return nil, ErrStale
	}
	d.live[sid] = round

	if s, ok := d.slots[sid]; ok {
		if s.round == round {
			s.refs++
			return s, nil
		}
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &slot{round: round, ctx: ctx, cancel: cancel, refs: 1}
	d.slots[sid] = s
	return s, nil
}

func (d *Dispatcher) release(sid string, s *slot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s.refs--
	if s.refs == 0 && d.slots[sid] == s {
		s.cancel()
		delete(d.slots, sid)
	}
}
