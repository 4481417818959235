package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunSweeper calls st.Sweep(idle) every interval until ctx is done.
// It always returns nil so it can run inside an errgroup.
func RunSweeper(ctx context.Context, st Store, every, idle time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := st.Sweep(idle); n > 0 {
				log.Info().Int("removed", n).Int("remaining", st.Len()).Msg("store: swept idle sessions")
			}
		}
	}
}
