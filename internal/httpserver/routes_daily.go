// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new   → start (or restart) the caller's session on today's country
//   - GET  /daily/today → today's date key and puzzle number
//
// Every player gets the same country on the same UTC date; the choice is
// deterministic from the date and a salt derived from SESSION_SECRET.
// Guesses go through the regular /game/guess route.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/geoguess/internal/daily"
	"github.com/robalobadob/geoguess/internal/game"
)

// TodayResponse is returned by /daily/today.
type TodayResponse struct {
	Date   string `json:"date"`
	Number int    `json:"number"`
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.handleDailyNew)
		r.Get("/today", s.handleDailyToday)
	})
}

// handleDailyNew is POST /game/new with mode=daily.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	s.startGame(w, r, game.ModeDaily)
}

func (s *Server) handleDailyToday(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, TodayResponse{Date: daily.DateKey(now), Number: daily.Number(now)})
}
