// internal/geo/index.go
//
// GeoIndex: immutable lookup from country name to country record.
// Responsibilities:
//   - Join the country and city datasets once at startup (capital coordinates by (capital, ISO)).
//   - Key each record by its common name and, when different, its official name.
//     Both keys resolve to the same record through a name -> RecordID map.
//   - Expose read-only accessors; the index is safe for concurrent readers without locking.
package geo

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// LatLng is a point in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RecordID identifies a record inside one Index.
type RecordID int

// Record is one country as seen by the game.
type Record struct {
	ID           RecordID `json:"id"`
	Name         string   `json:"name"`
	OfficialName string   `json:"officialName"`
	ISO          string   `json:"iso"`
	Region       string   `json:"region,omitempty"`
	Capital      string   `json:"capital,omitempty"`
	Location     LatLng   `json:"location"`
	CapitalAt    LatLng   `json:"capitalAt"`
	HasCapitalAt bool     `json:"hasCapitalAt"`
}

// CapitalLocation reports the capital coordinates when the city dataset had them.
func (r Record) CapitalLocation() (LatLng, bool) {
	return r.CapitalAt, r.HasCapitalAt
}

// DataIntegrityError is returned when the datasets cannot produce a usable index.
type DataIntegrityError struct {
	Reason string
	Err    error
}

func (e *DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geo data integrity: %s: %v", e.Reason, e.Err)
	}
	return "geo data integrity: " + e.Reason
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// Index maps names to records.
type Index struct {
	records []Record
	ids     map[string]RecordID
	names   []string // sorted keys
}

type cityKey struct{ name, iso string }

// Build joins countries with cities and returns the index.
// Countries without a usable centroid are skipped. An empty result is a *DataIntegrityError.
func Build(countries []Country, cities []City) (*Index, error) {
	capitals := make(map[cityKey]LatLng, len(cities))
	for _, c := range cities {
		k := cityKey{c.Name, c.Country}
		if _, dup := capitals[k]; dup {
			continue // first match wins
		}
		capitals[k] = LatLng{Lat: float64(c.Lat), Lng: float64(c.Lng)}
	}

	ix := &Index{ids: make(map[string]RecordID, 2*len(countries))}
	for _, c := range countries {
		if c.Name.Common == "" {
			log.Warn().Str("iso", c.CCA2).Msg("geo: country without common name skipped")
			continue
		}
		if len(c.LatLng) < 2 || !validLatLng(c.LatLng[0], c.LatLng[1]) {
			log.Debug().Str("country", c.Name.Common).Msg("geo: country without centroid skipped")
			continue
		}

		rec := Record{
			ID:           RecordID(len(ix.records)),
			Name:         c.Name.Common,
			OfficialName: c.Name.Official,
			ISO:          c.CCA2,
			Region:       c.Region,
			Location:     LatLng{Lat: c.LatLng[0], Lng: c.LatLng[1]},
		}
		if len(c.Capital) > 0 {
			rec.Capital = c.Capital[0]
			if at, ok := capitals[cityKey{rec.Capital, c.CCA2}]; ok {
				rec.CapitalAt, rec.HasCapitalAt = at, true
			}
		}

		common := ix.claim(rec.Name, rec)
		official := false
		if rec.OfficialName != "" && rec.OfficialName != rec.Name {
			official = ix.claim(rec.OfficialName, rec)
		}
		switch {
		case common:
			ix.records = append(ix.records, rec)
		case official:
			// the record is known only by its official name
			rec.Name = rec.OfficialName
			ix.records = append(ix.records, rec)
		}
	}

	if len(ix.records) == 0 {
		return nil, &DataIntegrityError{Reason: "no country has a centroid"}
	}

	ix.names = make([]string, 0, len(ix.ids))
	for k := range ix.ids {
		ix.names = append(ix.names, k)
	}
	sort.Strings(ix.names)
	return ix, nil
}

// claim maps key to rec unless another record already holds it.
func (ix *Index) claim(key string, rec Record) bool {
	if prev, taken := ix.ids[key]; taken {
		log.Warn().
			Str("name", key).
			Str("kept", ix.records[prev].ISO).
			Str("dropped", rec.ISO).
			Msg("geo: name claimed by two countries")
		return false
	}
	ix.ids[key] = rec.ID
	return true
}

func validLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Lookup returns the record keyed by name. Matching is exact and case-sensitive.
func (ix *Index) Lookup(name string) (Record, bool) {
	id, ok := ix.ids[name]
	if !ok {
		return Record{}, false
	}
	return ix.records[id], true
}

// ID returns the record identifier for a key.
func (ix *Index) ID(name string) (RecordID, bool) {
	id, ok := ix.ids[name]
	return id, ok
}

// Record returns the record with the given identifier.
func (ix *Index) Record(id RecordID) (Record, bool) {
	if id < 0 || int(id) >= len(ix.records) {
		return Record{}, false
	}
	return ix.records[id], true
}

// Names returns every key (common and official names) in sorted order.
func (ix *Index) Names() []string {
	return append([]string(nil), ix.names...)
}

// Len is the number of unique records. Aliases are not counted.
func (ix *Index) Len() int { return len(ix.records) }

// Records returns a copy of all records in identifier order.
func (ix *Index) Records() []Record {
	return append([]Record(nil), ix.records...)
}
