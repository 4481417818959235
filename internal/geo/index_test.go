package geo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type IndexSuite struct {
	ix *Index
}

var _ = Suite(&IndexSuite{})

func fixtureCountries() []Country {
	return []Country{
		{Name: CountryName{"France", "French Republic"}, CCA2: "FR", Region: "Europe", Capital: []string{"Paris"}, LatLng: []float64{46, 2}},
		{Name: CountryName{"Germany", "Federal Republic of Germany"}, CCA2: "DE", Capital: []string{"Berlin"}, LatLng: []float64{51, 9}},
		{Name: CountryName{"Japan", "Japan"}, CCA2: "JP", Capital: []string{"Tokyo"}, LatLng: []float64{36, 138}},
		{Name: CountryName{"Atlantis", "Kingdom of Atlantis"}, CCA2: "XA", Capital: []string{"Poseidonia"}},
		{Name: CountryName{"Moldova", "Republic of Moldova"}, CCA2: "MD", Capital: []string{"Chișinău"}, LatLng: []float64{47, 29}},
	}
}

func fixtureCities() []City {
	return []City{
		{Name: "Paris", Country: "US", Lat: 33.66, Lng: -95.55},
		{Name: "Paris", Country: "FR", Lat: 48.85341, Lng: 2.3488},
		{Name: "Paris", Country: "FR", Lat: 0, Lng: 0},
		{Name: "Berlin", Country: "DE", Lat: 52.52437, Lng: 13.41053},
		{Name: "Tokyo", Country: "JP", Lat: 35.6895, Lng: 139.69171},
		{Name: "Chisinau", Country: "MD", Lat: 47.00556, Lng: 28.8575},
	}
}

func (s *IndexSuite) SetUpTest(c *C) {
	var err error
	s.ix, err = Build(fixtureCountries(), fixtureCities())
	c.Assert(err, IsNil)
}

func (s *IndexSuite) TestSkipsCountriesWithoutCentroid(c *C) {
	c.Assert(s.ix.Len(), Equals, 4)
	_, ok := s.ix.Lookup("Atlantis")
	c.Assert(ok, Equals, false)
}

func (s *IndexSuite) TestOfficialNameIsAlias(c *C) {
	common, ok := s.ix.ID("France")
	c.Assert(ok, Equals, true)
	official, ok := s.ix.ID("French Republic")
	c.Assert(ok, Equals, true)
	c.Assert(official, Equals, common)

	// Japan has identical common and official names: one key, one record.
	c.Assert(s.ix.Names(), DeepEquals, []string{
		"Federal Republic of Germany", "France", "French Republic", "Germany", "Japan",
		"Moldova", "Republic of Moldova",
	})
}

func (s *IndexSuite) TestLookupIsExact(c *C) {
	_, ok := s.ix.Lookup("france")
	c.Assert(ok, Equals, false)
	_, ok = s.ix.Lookup(" France")
	c.Assert(ok, Equals, false)

	r, ok := s.ix.Lookup("France")
	c.Assert(ok, Equals, true)
	c.Assert(r.Name, Equals, "France")
	c.Assert(r.ISO, Equals, "FR")
	c.Assert(r.Location, Equals, LatLng{46, 2})
}

func (s *IndexSuite) TestCapitalJoinUsesNameAndISO(c *C) {
	r, _ := s.ix.Lookup("France")
	at, ok := r.CapitalLocation()
	c.Assert(ok, Equals, true)
	c.Assert(at, Equals, LatLng{48.85341, 2.3488})

	// No exact (name, ISO) city: capital coordinates stay absent.
	r, _ = s.ix.Lookup("Moldova")
	_, ok = r.CapitalLocation()
	c.Assert(ok, Equals, false)
	c.Assert(r.Capital, Equals, "Chișinău")
}

func (s *IndexSuite) TestRecordAccessors(c *C) {
	id, _ := s.ix.ID("Germany")
	r, ok := s.ix.Record(id)
	c.Assert(ok, Equals, true)
	c.Assert(r.Name, Equals, "Germany")

	_, ok = s.ix.Record(RecordID(s.ix.Len()))
	c.Assert(ok, Equals, false)
	_, ok = s.ix.Record(-1)
	c.Assert(ok, Equals, false)
	c.Assert(s.ix.Records(), HasLen, s.ix.Len())
}

func (s *IndexSuite) TestNamesReturnsCopy(c *C) {
	n := s.ix.Names()
	n[0] = "mutated"
	c.Assert(s.ix.Names()[0], Not(Equals), "mutated")
}

func (s *IndexSuite) TestNameCollisionFirstWins(c *C) {
	countries := []Country{
		{Name: CountryName{"Congo", "Republic of the Congo"}, CCA2: "CG", LatLng: []float64{-1, 15}},
		{Name: CountryName{"Congo", "Democratic Republic of the Congo"}, CCA2: "CD", LatLng: []float64{0, 25}},
	}
	ix, err := Build(countries, nil)
	c.Assert(err, IsNil)
	r, _ := ix.Lookup("Congo")
	c.Assert(r.ISO, Equals, "CG")
	r, ok := ix.Lookup("Democratic Republic of the Congo")
	c.Assert(ok, Equals, true)
	c.Assert(r.ISO, Equals, "CD")
	c.Assert(ix.Len(), Equals, 2)

	// the loser's canonical name is the key it actually holds
	c.Assert(r.Name, Equals, "Democratic Republic of the Congo")
	for _, rec := range ix.Records() {
		id, ok := ix.ID(rec.Name)
		c.Assert(ok, Equals, true)
		c.Assert(id, Equals, rec.ID)
	}
}

func (s *IndexSuite) TestEmptyIndexIsIntegrityError(c *C) {
	_, err := Build([]Country{{Name: CountryName{"Nowhere", ""}}}, nil)
	var die *DataIntegrityError
	c.Assert(errors.As(err, &die), Equals, true)

	_, err = Build(nil, nil)
	c.Assert(errors.As(err, &die), Equals, true)
}

func (s *IndexSuite) TestEmbeddedDatasets(c *C) {
	ds, src, err := Load("", "")
	c.Assert(err, IsNil)
	c.Assert(src, Equals, Source{Countries: "embedded", Cities: "embedded"})

	ix, err := Build(ds.Countries, ds.Cities)
	c.Assert(err, IsNil)
	c.Assert(ix.Len() > 190, Equals, true)
	c.Assert(len(ix.Names()) > ix.Len(), Equals, true)

	for _, name := range []string{"France", "Fiji", "Finland", "United States of America", "Germany"} {
		_, ok := ix.Lookup(name)
		c.Assert(ok, Equals, true, Commentf("missing %s", name))
	}

	// Antarctica has a centroid but no capital.
	r, ok := ix.Lookup("Antarctica")
	c.Assert(ok, Equals, true)
	_, ok = r.CapitalLocation()
	c.Assert(ok, Equals, false)
}

func (s *IndexSuite) TestLoadFromFiles(c *C) {
	dir := c.MkDir()
	countries := filepath.Join(dir, "countries.json")
	cities := filepath.Join(dir, "cities.json")
	c.Assert(os.WriteFile(countries, []byte(`[{"name":{"common":"Iceland","official":"Iceland"},"cca2":"IS","capital":["Reykjavik"],"latlng":[65,-18]}]`), 0o644), IsNil)
	c.Assert(os.WriteFile(cities, []byte(`[{"name":"Reykjavik","country":"IS","lat":"64.13548","lng":-21.89541}]`), 0o644), IsNil)

	ds, src, err := Load(countries, cities)
	c.Assert(err, IsNil)
	c.Assert(src.Countries, Equals, countries)
	c.Assert(ds.Cities[0].Lat, Equals, Coord(64.13548))
	c.Assert(ds.Cities[0].Lng, Equals, Coord(-21.89541))

	ix, err := Build(ds.Countries, ds.Cities)
	c.Assert(err, IsNil)
	r, _ := ix.Lookup("Iceland")
	at, ok := r.CapitalLocation()
	c.Assert(ok, Equals, true)
	c.Assert(at.Lat, Equals, 64.13548)
}

func (s *IndexSuite) TestLoadErrors(c *C) {
	var die *DataIntegrityError

	_, _, err := Load(filepath.Join(c.MkDir(), "missing.json"), "")
	c.Assert(errors.As(err, &die), Equals, true)
	c.Assert(die.Reason, Equals, "read countries")

	_, err = DecodeCities(strings.NewReader(`[{"name":"X","lat":"north"}]`))
	c.Assert(errors.As(err, &die), Equals, true)

	_, err = DecodeCountries(strings.NewReader(`{`))
	c.Assert(errors.As(err, &die), Equals, true)
}
