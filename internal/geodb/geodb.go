// internal/geodb/geodb.go
//
// SQLite copy of the reference datasets.
// Responsibilities:
//   - Opening SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Importing the country/city datasets and loading them back for geo.Build.
//
// Note: the database is read once at startup; the game never writes to it.
package geodb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/geo"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

/**
 * Open opens (and creates if missing) a SQLite database file.
 *
 * - Ensures parent directory exists for relative DSNs (e.g. ./data/geo.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 */
func Open(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * Migrate applies the embedded migrations/*.sql files.
 *
 * - Uses a _migrations table to track applied files.
 * - Executes each file in lexical order, once, inside a transaction
 *   together with its _migrations row.
 */
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		name := filepath.Base(f)

		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrationsFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		sqlText := string(sqlBytes)

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(sqlText); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		log.Info().Str("migration", name).Msg("applied")
	}
	return nil
}

/* ----------------------- Reference tables ------------------------ */

// Info describes the last import.
type Info struct {
	Countries  string    // source of the country rows ("embedded" or a path)
	Cities     string    // source of the city rows
	ImportedAt time.Time // UTC
}

/**
 * Import replaces the contents of the reference tables with ds.
 *
 * - Runs in one transaction; a failure leaves the previous rows intact.
 * - Row order is preserved through seq.
 * - Countries without a usable [lat, lng] pair are stored with NULL coordinates.
 */
func Import(ctx context.Context, db *sql.DB, ds geo.Datasets, src geo.Source) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM country_capitals`,
		`DELETE FROM countries`,
		`DELETE FROM cities`,
		`DELETE FROM dataset_meta`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	insCountry, err := tx.PrepareContext(ctx, `
        INSERT INTO countries (seq, common_name, official_name, cca2, region, lat, lng)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insCountry.Close()

	insCapital, err := tx.PrepareContext(ctx, `
        INSERT INTO country_capitals (country_seq, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insCapital.Close()

	for i, c := range ds.Countries {
		var lat, lng sql.NullFloat64
		if len(c.LatLng) >= 2 {
			lat = sql.NullFloat64{Float64: c.LatLng[0], Valid: true}
			lng = sql.NullFloat64{Float64: c.LatLng[1], Valid: true}
		}
		if _, err := insCountry.ExecContext(ctx, i, c.Name.Common, c.Name.Official, c.CCA2, c.Region, lat, lng); err != nil {
			return fmt.Errorf("insert country %q: %w", c.Name.Common, err)
		}
		for pos, capital := range c.Capital {
			if _, err := insCapital.ExecContext(ctx, i, pos, capital); err != nil {
				return fmt.Errorf("insert capital %q: %w", capital, err)
			}
		}
	}

	insCity, err := tx.PrepareContext(ctx, `
        INSERT INTO cities (seq, name, country, lat, lng) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insCity.Close()

	for i, c := range ds.Cities {
		if _, err := insCity.ExecContext(ctx, i, c.Name, c.Country, float64(c.Lat), float64(c.Lng)); err != nil {
			return fmt.Errorf("insert city %q: %w", c.Name, err)
		}
	}

	meta := map[string]string{
		"countries_source": src.Countries,
		"cities_source":    src.Cities,
		"imported_at":      time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO dataset_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("record %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	log.Info().
		Int("countries", len(ds.Countries)).
		Int("cities", len(ds.Cities)).
		Msg("geodb: datasets imported")
	return nil
}

// Load reads the reference tables back in dataset order.
func Load(ctx context.Context, db *sql.DB) (geo.Datasets, error) {
	var ds geo.Datasets

	capitals, err := loadCapitals(ctx, db)
	if err != nil {
		return ds, err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT seq, common_name, official_name, cca2, region, lat, lng
        FROM countries
        ORDER BY seq`)
	if err != nil {
		return ds, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq      int
			c        geo.Country
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&seq, &c.Name.Common, &c.Name.Official, &c.CCA2, &c.Region, &lat, &lng); err != nil {
			return ds, fmt.Errorf("scan country: %w", err)
		}
		if lat.Valid && lng.Valid {
			c.LatLng = []float64{lat.Float64, lng.Float64}
		}
		c.Capital = capitals[seq]
		if c.Capital == nil {
			c.Capital = []string{}
		}
		ds.Countries = append(ds.Countries, c)
	}
	if err := rows.Err(); err != nil {
		return ds, err
	}

	cityRows, err := db.QueryContext(ctx, `SELECT name, country, lat, lng FROM cities ORDER BY seq`)
	if err != nil {
		return ds, fmt.Errorf("query cities: %w", err)
	}
	defer cityRows.Close()

	for cityRows.Next() {
		var (
			c        geo.City
			lat, lng float64
		)
		if err := cityRows.Scan(&c.Name, &c.Country, &lat, &lng); err != nil {
			return ds, fmt.Errorf("scan city: %w", err)
		}
		c.Lat, c.Lng = geo.Coord(lat), geo.Coord(lng)
		ds.Cities = append(ds.Cities, c)
	}
	return ds, cityRows.Err()
}

func loadCapitals(ctx context.Context, db *sql.DB) (map[int][]string, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT country_seq, name FROM country_capitals ORDER BY country_seq, position`)
	if err != nil {
		return nil, fmt.Errorf("query capitals: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]string)
	for rows.Next() {
		var (
			seq  int
			name string
		)
		if err := rows.Scan(&seq, &name); err != nil {
			return nil, fmt.Errorf("scan capital: %w", err)
		}
		out[seq] = append(out[seq], name)
	}
	return out, rows.Err()
}

// ReadInfo returns the bookkeeping of the last import.
// A database that was never imported into yields sql.ErrNoRows.
func ReadInfo(ctx context.Context, db *sql.DB) (Info, error) {
	var info Info
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM dataset_meta`)
	if err != nil {
		return info, fmt.Errorf("query dataset_meta: %w", err)
	}
	defer rows.Close()

	seen := 0
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return info, err
		}
		seen++
		switch k {
		case "countries_source":
			info.Countries = v
		case "cities_source":
			info.Cities = v
		case "imported_at":
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				info.ImportedAt = t
			}
		}
	}
	if err := rows.Err(); err != nil {
		return info, err
	}
	if seen == 0 {
		return info, sql.ErrNoRows
	}
	return info, nil
}
