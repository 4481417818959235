// internal/scoring/scoring.go
//
// ScoringEngine: distance between two countries and the proximity category shown to the player.
// Responsibilities:
//   - Great-circle distance between centroids on a spherical earth, in whole kilometres.
//   - Step-function categorization of a distance.
//   - Display formatting of kilometre and metre values.
//
// All functions are pure and safe for concurrent use.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"

	"github.com/robalobadob/geoguess/internal/geo"
)

// EarthRadiusMeters is the mean earth radius used for distances.
const EarthRadiusMeters = 6371008.8

// Category is the coarse proximity label for a guess.
type Category string

const (
	CategoryCorrect   Category = "correct"
	CategoryVeryClose Category = "very-close"
	CategoryClose     Category = "close"
	CategoryMedium    Category = "medium"
	CategoryFar       Category = "far"
	CategoryVeryFar   Category = "very-far"
	CategoryInvalid   Category = "invalid"
)

// Upper bounds (exclusive, km) of each non-exact category.
const (
	veryCloseKm = 1000
	closeKm     = 3000
	mediumKm    = 6000
	farKm       = 10000
)

// Distance returns the centroid distance between a and b in kilometres,
// rounded half away from zero. Distance(a, b) == Distance(b, a).
func Distance(a, b geo.Record) int {
	return DistanceKm(a.Location, b.Location)
}

// DistanceKm is Distance for bare points.
func DistanceKm(a, b geo.LatLng) int {
	if a == b {
		return 0
	}
	// Fixed operand order so floating-point evaluation is identical both ways.
	if less(b, a) {
		a, b = b, a
	}
	m := DistanceMeters(a, b)
	return int(math.Round(m / 1000))
}

// DistanceMeters is the unrounded great-circle distance in metres.
func DistanceMeters(a, b geo.LatLng) float64 {
	p := s2.LatLngFromDegrees(a.Lat, a.Lng)
	q := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p.Distance(q).Radians() * EarthRadiusMeters
}

func less(a, b geo.LatLng) bool {
	if a.Lat != b.Lat {
		return a.Lat < b.Lat
	}
	return a.Lng < b.Lng
}

// Categorize maps a distance in km to its category.
// Negative input cannot come from Distance and yields CategoryInvalid.
func Categorize(km int) Category {
	switch {
	case km < 0:
		return CategoryInvalid
	case km == 0:
		return CategoryCorrect
	case km < veryCloseKm:
		return CategoryVeryClose
	case km < closeKm:
		return CategoryClose
	case km < mediumKm:
		return CategoryMedium
	case km < farKm:
		return CategoryFar
	default:
		return CategoryVeryFar
	}
}

// FormatKm renders km with thousands separators: 1234 -> "1,234 km".
func FormatKm(km int) string {
	return groupThousands(km) + " km"
}

// FormatMeters renders a metre value the way the forecast panel does:
// under 1 km in metres ("850m"), otherwise rounded km ("12km"). Negative means unknown.
func FormatMeters(m float64) string {
	switch {
	case m < 0 || math.IsNaN(m):
		return "??m"
	case m < 1000:
		return strconv.Itoa(int(math.Round(m))) + "m"
	default:
		return groupThousands(int(math.Round(m/1000))) + "km"
	}
}

func groupThousands(n int) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
