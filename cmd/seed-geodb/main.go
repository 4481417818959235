// cmd/seed-geodb/main.go
//
// Writes the country and city datasets into a SQLite file for GEO_DB.
// Responsibilities:
//   - Load the datasets the server would use without GEO_DB (COUNTRIES_FILE / CITIES_FILE or embedded).
//   - Check that they build a usable index before touching the database.
//   - Migrate the database and replace its reference tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/config"
	"github.com/robalobadob/geoguess/internal/geo"
	"github.com/robalobadob/geoguess/internal/geodb"
)

const defaultDBPath = "data/geo.db"

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ConfigureLogging(os.Stderr)

	path := cfg.GeoDB
	if path == "" {
		path = defaultDBPath
	}

	ds, src, err := geo.Load(cfg.CountriesFile, cfg.CitiesFile)
	if err != nil {
		return err
	}
	ix, err := geo.Build(ds.Countries, ds.Cities)
	if err != nil {
		return err
	}
	log.Info().
		Str("countries", src.Countries).
		Str("cities", src.Cities).
		Int("records", ix.Len()).
		Msg("datasets loaded")

	db, err := geodb.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	if err := geodb.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if err := geodb.Import(ctx, db, ds, src); err != nil {
		return fmt.Errorf("importing datasets: %w", err)
	}
	log.Info().Str("db", path).Msg("seed complete")
	return nil
}
