// internal/geo/dataset.go
//
// Reference dataset decoding and loading.
// Responsibilities:
//   - Decode the country dataset (world-countries shape) and the city dataset (cities.json shape).
//   - Load each dataset from a configured file, falling back to the embedded copy in assets.
//   - Report malformed or unreadable input as *DataIntegrityError.
//
// Shapes:
//   countries: [{"name":{"common","official"},"cca2","region","capital":[..],"latlng":[lat,lng]}]
//   cities:    [{"name","country","lat","lng"}]   (lat/lng are strings upstream; numbers accepted too)
package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/robalobadob/geoguess/assets"
)

// CountryName holds the two names a country can be guessed by.
type CountryName struct {
	Common   string `json:"common"`
	Official string `json:"official"`
}

// Country is one entry of the country dataset.
type Country struct {
	Name    CountryName `json:"name"`
	CCA2    string      `json:"cca2"`
	Region  string      `json:"region"`
	Capital []string    `json:"capital"`
	LatLng  []float64   `json:"latlng"`
}

// City is one entry of the city dataset.
type City struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Lat     Coord  `json:"lat"`
	Lng     Coord  `json:"lng"`
}

// Coord is a degree value that decodes from a JSON number or a numeric string.
type Coord float64

func (c *Coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", s, err)
		}
		*c = Coord(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Coord(v)
	return nil
}

// Datasets bundles both reference tables as consumed by Build.
type Datasets struct {
	Countries []Country
	Cities    []City
}

// Source describes where Load found each dataset ("embedded" or a file path).
type Source struct {
	Countries string
	Cities    string
}

// DecodeCountries reads a country dataset.
func DecodeCountries(r io.Reader) ([]Country, error) {
	var out []Country
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, &DataIntegrityError{Reason: "decode countries", Err: err}
	}
	return out, nil
}

// DecodeCities reads a city dataset.
func DecodeCities(r io.Reader) ([]City, error) {
	var out []City
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, &DataIntegrityError{Reason: "decode cities", Err: err}
	}
	return out, nil
}

// Load reads both datasets. An empty path selects the embedded copy.
func Load(countriesPath, citiesPath string) (Datasets, Source, error) {
	var (
		ds  Datasets
		src Source
	)

	raw, name, err := readDataset(countriesPath, assets.Countries)
	if err != nil {
		return ds, src, &DataIntegrityError{Reason: "read countries", Err: err}
	}
	src.Countries = name
	if ds.Countries, err = DecodeCountries(bytes.NewReader(raw)); err != nil {
		return ds, src, err
	}

	raw, name, err = readDataset(citiesPath, assets.Cities)
	if err != nil {
		return ds, src, &DataIntegrityError{Reason: "read cities", Err: err}
	}
	src.Cities = name
	if ds.Cities, err = DecodeCities(bytes.NewReader(raw)); err != nil {
		return ds, src, err
	}
	return ds, src, nil
}

// readDataset returns the file contents when path is set, else the embedded bytes.
func readDataset(path string, embedded func() ([]byte, error)) ([]byte, string, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		return b, path, err
	}
	b, err := embedded()
	return b, "embedded", err
}
