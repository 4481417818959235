// internal/httpserver/routes_game.go
//
// HTTP routes for the country guessing game.
//   - POST /game/new      → start (or restart) a session, returns the session token
//   - POST /game/guess    → submit a guess for the current round
//   - GET  /game/state    → snapshot of the session (target only once won)
//   - GET  /game/suggest  → autocomplete over country names (no session needed)
//   - GET  /game/forecast → weather at the target's capital for the current round
//
// Sessions live in the store; every mutation goes through store.Update.

package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/geo"
	"github.com/robalobadob/geoguess/internal/match"
	"github.com/robalobadob/geoguess/internal/scoring"
	"github.com/robalobadob/geoguess/internal/store"
	"github.com/robalobadob/geoguess/internal/weather"
)

const maxSuggestLimit = 20

// ------------------------------ payloads ------------------------------------

// NewGameRequest is the body of POST /game/new (optional).
type NewGameRequest struct {
	Mode string `json:"mode" enum:"normal,daily"`
}

// NewGameResponse is returned by POST /game/new and POST /daily/new.
type NewGameResponse struct {
	GameID string    `json:"gameId"`
	Round  int       `json:"round"`
	Mode   game.Mode `json:"mode"`
	Date   string    `json:"date,omitempty"`
	Token  string    `json:"token"`
}

// GuessRequest is the body of POST /game/guess.
type GuessRequest struct {
	Guess string `json:"guess" required:"true"`
}

// GuessView is one guess as shown to the player.
type GuessView struct {
	Country    string           `json:"country"`
	DistanceKm int              `json:"distanceKm"`
	Distance   string           `json:"distance"`
	Category   scoring.Category `json:"category"`
}

// GuessResponse is returned by POST /game/guess.
type GuessResponse struct {
	GuessView
	Won      bool        `json:"won"`
	Attempts int         `json:"attempts"`
	Guesses  []GuessView `json:"guesses"`
	Target   string      `json:"target,omitempty"`
}

// StateResponse is returned by GET /game/state.
type StateResponse struct {
	GameID  string      `json:"gameId"`
	Round   int         `json:"round"`
	Mode    game.Mode   `json:"mode"`
	Date    string      `json:"date,omitempty"`
	State   game.State  `json:"state"`
	Won     bool        `json:"won"`
	Guesses []GuessView `json:"guesses"`
	Target  string      `json:"target,omitempty"`
}

// SuggestResponse is returned by GET /game/suggest.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ForecastResponse is returned by GET /game/forecast.
type ForecastResponse struct {
	Round    int               `json:"round"`
	Forecast *weather.Forecast `json:"forecast"`
}

func guessView(g game.Guess) GuessView {
	return GuessView{
		Country:    g.Country,
		DistanceKm: g.DistanceKm,
		Distance:   scoring.FormatKm(g.DistanceKm),
		Category:   g.Category,
	}
}

func guessViews(gs []game.Guess) []GuessView {
	out := make([]GuessView, 0, len(gs))
	for _, g := range gs {
		out = append(out, guessView(g))
	}
	return out
}

func stateResponse(v game.View) StateResponse {
	return StateResponse{
		GameID:  v.ID,
		Round:   v.Round,
		Mode:    v.Mode,
		Date:    v.Date,
		State:   v.State,
		Won:     v.Won,
		Guesses: guessViews(v.Guesses),
		Target:  v.Target,
	}
}

// ------------------------------ handlers ------------------------------------

// handleNewGame restarts the caller's session when a valid token is presented,
// otherwise creates a new session. Either way a fresh token is issued.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.startGame(w, r, game.ParseMode(req.Mode))
}

func (s *Server) startGame(w http.ResponseWriter, r *http.Request, mode game.Mode) {
	ctx := r.Context()

	var view game.View
	restarted := false
	if sid, ok := s.sessionFromRequest(r); ok {
		err := s.store.Update(ctx, sid, func(sess *game.Session) error {
			if mode == game.ModeDaily {
				sess.StartDailyGame(s.now(), s.salt)
			} else {
				sess.StartNewGame()
			}
			view = sess.View()
			return nil
		})
		switch {
		case err == nil:
			restarted = true
			if s.wx != nil {
				s.wx.Invalidate(sid, view.Round)
			}
		case errors.Is(err, store.ErrNotFound):
			// token outlived its session; fall through to a new one
		default:
			s.storeError(w, err)
			return
		}
	}

	if !restarted {
		var sess *game.Session
		if mode == game.ModeDaily {
			sess = s.engine.NewDailySession(s.now(), s.salt)
		} else {
			sess = s.engine.NewSession()
		}
		if err := s.store.Save(ctx, sess); err != nil {
			log.Error().Err(err).Msg("save session")
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}
		view = sess.View()
	}

	tok, exp, err := s.tokens.sign(view.ID)
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.tokens.setCookie(w, tok, exp)

	log.Debug().Str("session", view.ID).Int("round", view.Round).Str("mode", string(view.Mode)).Bool("restart", restarted).Msg("game started")
	writeJSON(w, http.StatusOK, NewGameResponse{
		GameID: view.ID,
		Round:  view.Round,
		Mode:   view.Mode,
		Date:   view.Date,
		Token:  tok,
	})
}

// handleGuess resolves and scores one guess.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req GuessRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	var (
		res  game.GuessResult
		view game.View
	)
	err := s.store.Update(r.Context(), sessionID(r), func(sess *game.Session) error {
		var err error
		if res, err = sess.SubmitGuess(req.Guess); err != nil {
			return err
		}
		view = sess.View()
		return nil
	})
	switch {
	case errors.Is(err, game.ErrUnknownCountry):
		writeError(w, http.StatusBadRequest, "unknown_country")
		return
	case errors.Is(err, game.ErrDuplicateGuess):
		writeError(w, http.StatusConflict, "duplicate_guess")
		return
	case errors.Is(err, game.ErrGameFinished):
		writeError(w, http.StatusConflict, "game_finished")
		return
	case err != nil:
		s.storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GuessResponse{
		GuessView: guessView(res.Guess),
		Won:       res.Won,
		Attempts:  res.Attempts,
		Guesses:   guessViews(view.Guesses),
		Target:    view.Target,
	})
}

// handleState returns the session snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var view game.View
	err := s.store.Update(r.Context(), sessionID(r), func(sess *game.Session) error {
		view = sess.View()
		return nil
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(view))
}

// handleSuggest returns up to ?limit= names for ?q=.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := match.DefaultSuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = min(n, maxSuggestLimit)
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: s.engine.Matcher().Suggest(q, limit)})
}

// handleForecast fetches the weather at the target's capital for the current round.
// A restart while the request is in flight yields 409 stale instead of the old round's forecast.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.wx == nil {
		writeError(w, http.StatusServiceUnavailable, "forecast_disabled")
		return
	}
	sid := sessionID(r)

	var (
		round int
		at    geo.LatLng
		known bool
	)
	err := s.store.Update(r.Context(), sid, func(sess *game.Session) error {
		round = sess.Round()
		at, known = sess.CapitalLocation()
		return nil
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	if !known {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	fc, err := s.wx.Forecast(r.Context(), sid, round, at.Lat, at.Lng)
	switch {
	case errors.Is(err, weather.ErrStale):
		writeError(w, http.StatusConflict, "stale")
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "timeout")
		return
	case err != nil:
		log.Warn().Err(err).Str("session", sid).Msg("forecast upstream failed")
		writeError(w, http.StatusBadGateway, "forecast_unavailable")
		return
	}

	// the round may have moved on while the fetch was running
	current := round
	err = s.store.Update(r.Context(), sid, func(sess *game.Session) error {
		current = sess.Round()
		return nil
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	if current != round {
		writeError(w, http.StatusConflict, "stale")
		return
	}
	writeJSON(w, http.StatusOK, ForecastResponse{Round: round, Forecast: fc})
}

// storeError maps store failures to responses.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session_not_found")
		return
	}
	log.Error().Err(err).Msg("session store")
	writeError(w, http.StatusInternalServerError, "store_failed")
}
