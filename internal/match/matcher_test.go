package match

import (
	"reflect"
	"strings"
	"testing"

	"github.com/robalobadob/geoguess/internal/geo"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	ds, _, err := geo.Load("", "")
	if err != nil {
		t.Fatalf("load datasets: %v", err)
	}
	ix, err := geo.Build(ds.Countries, ds.Cities)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return New(ix)
}

func TestResolve(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"exact common name", "France", "France", true},
		{"exact official name", "French Republic", "French Republic", true},
		{"surrounding whitespace", "  Japan ", "Japan", true},
		{"lower case", "germany", "Germany", true},
		{"transposition typo", "Frnace", "France", true},
		{"diacritics folded", "frânce", "France", true},
		{"accented key from plain input", "cote d'ivoire", "Republic of Côte d'Ivoire", true},
		{"blank", "   ", "", false},
		{"empty", "", "", false},
		{"gibberish", "xqzzkw", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Resolve(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		pattern, text string
		want          float64
	}{
		{"France", "France", 0},
		{"Frnace", "France", 1.0 / 6},
		{"france", "French Republic", 2.0 / 6},
		{"ger", "Federal Republic of Germany", 0},
		{"", "France", 1},
		{"zzzz", "Fiji", 1},
	}
	for _, tt := range tests {
		if got := Score(tt.pattern, tt.text); got != tt.want {
			t.Errorf("Score(%q, %q) = %v, want %v", tt.pattern, tt.text, got, tt.want)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	for _, p := range []string{"a", "zz", "Frnace", "united kingdom of great britain", strings.Repeat("q", 200)} {
		for _, name := range []string{"France", "Chad", "United Kingdom of Great Britain and Northern Ireland"} {
			s := Score(p, name)
			if s < 0 || s > 1 {
				t.Errorf("Score(%q, %q) = %v, outside [0,1]", p, name, s)
			}
		}
	}
}

func TestSuggest(t *testing.T) {
	m := newTestMatcher(t)

	if got := m.Suggest("F", 5); len(got) != 0 {
		t.Errorf("Suggest(F) = %v, want empty", got)
	}
	if got := m.Suggest(" ", 5); got == nil || len(got) != 0 {
		t.Errorf("Suggest(blank) = %#v, want empty non-nil", got)
	}

	got := m.Suggest("fi", 5)
	if len(got) != 5 {
		t.Fatalf("Suggest(fi) returned %d names, want 5: %v", len(got), got)
	}
	if got[0] != "Fiji" || got[1] != "Finland" {
		t.Errorf("Suggest(fi) = %v, want Fiji, Finland first", got)
	}

	if got := m.Suggest("fr", 0); len(got) != DefaultSuggestLimit || got[0] != "France" {
		t.Errorf("Suggest(fr, 0) = %v, want %d names starting with France", got, DefaultSuggestLimit)
	}
	if got := m.Suggest("fr", 2); len(got) != 2 {
		t.Errorf("Suggest(fr, 2) = %v, want 2 names", got)
	}
}

func TestSuggestIsDeterministic(t *testing.T) {
	m := newTestMatcher(t)
	a := m.Suggest("an", 10)
	for i := 0; i < 5; i++ {
		if b := m.Suggest("an", 10); !reflect.DeepEqual(a, b) {
			t.Fatalf("Suggest not stable: %v vs %v", a, b)
		}
	}
}

func TestSuggestNamesAreKeys(t *testing.T) {
	m := newTestMatcher(t)
	for _, n := range m.Suggest("republic", 20) {
		if _, ok := m.ix.Lookup(n); !ok {
			t.Errorf("suggested %q is not an index key", n)
		}
	}
}

func TestLongInputIsBounded(t *testing.T) {
	m := newTestMatcher(t)
	long := strings.Repeat("x", 10_000)
	if _, ok := m.Resolve(long); ok {
		t.Errorf("Resolve(long) matched")
	}
	if got := m.Suggest(long, 3); len(got) != 3 {
		t.Errorf("Suggest(long) = %v, want 3 names", got)
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Côte d'Ivoire": "cote d'ivoire",
		"São Tomé":      "sao tome",
		"FRANCE":        "france",
		"Chișinău":      "chisinau",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}
