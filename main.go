package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/geoguess/internal/config"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/geo"
	"github.com/robalobadob/geoguess/internal/geodb"
	"github.com/robalobadob/geoguess/internal/httpserver"
	"github.com/robalobadob/geoguess/internal/match"
	"github.com/robalobadob/geoguess/internal/store"
	"github.com/robalobadob/geoguess/internal/weather"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		var integrity *geo.DataIntegrityError
		if errors.As(err, &integrity) {
			log.Fatal().Err(err).Msg("country data unusable")
		}
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ConfigureLogging(os.Stderr)

	ds, err := loadDatasets(ctx, cfg)
	if err != nil {
		return err
	}
	ix, err := geo.Build(ds.Countries, ds.Cities)
	if err != nil {
		return err
	}
	log.Info().Int("records", ix.Len()).Int("names", len(ix.Names())).Msg("geo index built")

	engine := game.NewEngine(ix, match.New(ix))
	forecasts := weather.NewDispatcher(weather.NewClient(cfg.ForecastURL, cfg.ForecastDays, cfg.ForecastTimeout))
	sessions := store.NewMemoryStore(store.WithOnEvict(forecasts.Forget))

	srv := httpserver.New(cfg, httpserver.Deps{
		Engine:  engine,
		Store:   sessions,
		Weather: forecasts,
		Checks: map[string]httpserver.Checker{
			"geo": httpserver.CheckerFunc(func(context.Context) error {
				if ix.Len() == 0 {
					return errors.New("empty index")
				}
				return nil
			}),
		},
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("starting geoguess server")
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		return store.RunSweeper(gctx, sessions, 0, cfg.SessionIdle)
	})

	return g.Wait()
}

// loadDatasets reads the reference data from GEO_DB when set, else from
// COUNTRIES_FILE / CITIES_FILE or the embedded copies.
func loadDatasets(ctx context.Context, cfg *config.Config) (geo.Datasets, error) {
	if cfg.GeoDB == "" {
		ds, src, err := geo.Load(cfg.CountriesFile, cfg.CitiesFile)
		if err != nil {
			return ds, err
		}
		log.Info().Str("countries", src.Countries).Str("cities", src.Cities).Msg("datasets loaded")
		return ds, nil
	}

	db, err := geodb.Open(cfg.GeoDB)
	if err != nil {
		return geo.Datasets{}, err
	}
	defer db.Close()

	if err := geodb.Migrate(db); err != nil {
		return geo.Datasets{}, err
	}
	ds, err := geodb.Load(ctx, db)
	if err != nil {
		return ds, &geo.DataIntegrityError{Reason: "read " + cfg.GeoDB, Err: err}
	}
	ev := log.Info().Str("db", cfg.GeoDB).Int("countries", len(ds.Countries)).Int("cities", len(ds.Cities))
	if info, err := geodb.ReadInfo(ctx, db); err == nil {
		ev = ev.Str("imported_from", info.Countries).Time("imported_at", info.ImportedAt)
	}
	ev.Msg("datasets loaded")
	return ds, nil
}
