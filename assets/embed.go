// assets/embed.go
//
// Embedded reference datasets.
//   - countries.json: world-countries shaped records (name.common/official, cca2, region, capital, latlng).
//   - cities.json:    cities.json shaped records (name, country ISO, lat/lng as strings).
//
// These are the fallback when no COUNTRIES_FILE / CITIES_FILE / GEO_DB is configured.
package assets

import (
	"embed"
	"io"
)

//go:embed countries.json cities.json
var FS embed.FS

const (
	CountriesFile = "countries.json"
	CitiesFile    = "cities.json"
)

func read(name string) ([]byte, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Countries returns the raw embedded country dataset.
func Countries() ([]byte, error) {
	return read(CountriesFile)
}

// Cities returns the raw embedded city dataset.
func Cities() ([]byte, error) {
	return read(CitiesFile)
}
