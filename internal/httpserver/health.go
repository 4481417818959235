package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Checker verifies that a dependency is usable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// HealthResponse is returned by /health.
type HealthResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		res := HealthResponse{OK: true}
		if len(checks) > 0 {
			res.Checks = make(map[string]string, len(checks))
		}
		for name, c := range checks {
			if err := c.Check(ctx); err != nil {
				log.Error().Err(err).Str("name", name).Msg("health check failed")
				res.Checks[name] = "error"
				res.OK = false
				continue
			}
			res.Checks[name] = "ok"
		}

		status := http.StatusOK
		if !res.OK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, res)
	}
}
