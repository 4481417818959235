// internal/match/matcher.go
//
// Matcher: turns free-text player input into a canonical country key.
// Responsibilities:
//   - Resolve: exact key first, else the best fuzzy candidate under ResolveThreshold.
//   - Suggest: best-first candidate keys for partial input (no threshold).
//
// Scoring:
//   - Both sides are folded (lower-cased, combining marks removed) before comparison.
//   - The query is aligned against the best window of the candidate (location is ignored),
//     allowing insertions, deletions, substitutions and adjacent transpositions.
//   - score = edits / len(query), clamped to [0,1]; 0 is a perfect match.
//   - Equal scores are ordered by whole-name edit distance, then by key order.
package match

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/robalobadob/geoguess/internal/geo"
)

const (
	// ResolveThreshold is the exclusive upper bound on an accepted fuzzy score.
	ResolveThreshold = 0.3

	// DefaultSuggestLimit applies when Suggest is called with limit <= 0.
	DefaultSuggestLimit = 5

	// maxQueryRunes bounds the alignment table for hostile input.
	maxQueryRunes = 64
)

// Matcher is immutable after New and safe for concurrent use.
type Matcher struct {
	ix     *geo.Index
	names  []string // index keys, sorted
	folded [][]rune // folded form of names[i]
}

// Candidate is a scored key.
type Candidate struct {
	Name  string
	Score float64
}

// New precomputes folded forms of every key in ix.
func New(ix *geo.Index) *Matcher {
	names := ix.Names()
	folded := make([][]rune, len(names))
	for i, n := range names {
		folded[i] = []rune(Fold(n))
	}
	return &Matcher{ix: ix, names: names, folded: folded}
}

// Resolve maps raw input to a key of the index.
// Blank input and inputs whose best score is not below ResolveThreshold are not found.
func (m *Matcher) Resolve(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if _, ok := m.ix.Lookup(raw); ok {
		return raw, true
	}
	if _, ok := m.ix.Lookup(trimmed); ok {
		return trimmed, true
	}

	ranked := m.rank(trimmed)
	if len(ranked) == 0 || ranked[0].Score >= ResolveThreshold {
		return "", false
	}
	return ranked[0].Name, true
}

// Suggest returns up to limit keys, best first. Inputs of one character or less yield none.
func (m *Matcher) Suggest(partial string, limit int) []string {
	partial = strings.TrimSpace(partial)
	if utf8.RuneCountInString(partial) <= 1 {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	ranked := m.rank(partial)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.Name
	}
	return out
}

// Rank scores every key against query, best first.
func (m *Matcher) Rank(query string) []Candidate {
	return m.rank(strings.TrimSpace(query))
}

func (m *Matcher) rank(query string) []Candidate {
	q := []rune(Fold(query))
	if len(q) > maxQueryRunes {
		q = q[:maxQueryRunes]
	}
	if len(q) == 0 {
		return nil
	}

	type scored struct {
		Candidate
		whole int
	}
	all := make([]scored, len(m.names))
	qs := string(q)
	for i, name := range m.names {
		all[i] = scored{
			Candidate: Candidate{Name: name, Score: score(q, m.folded[i])},
			whole:     levenshtein.ComputeDistance(qs, string(m.folded[i])),
		}
	}
	// names are sorted, so a stable sort keeps key order as the last tie-breaker.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score < all[j].Score
		}
		return all[i].whole < all[j].whole
	})

	out := make([]Candidate, len(all))
	for i := range all {
		out[i] = all[i].Candidate
	}
	return out
}

// Score compares pattern against text after folding both.
func Score(pattern, text string) float64 {
	p := []rune(Fold(pattern))
	if len(p) > maxQueryRunes {
		p = p[:maxQueryRunes]
	}
	return score(p, []rune(Fold(text)))
}

// score is the approximate-substring optimal string alignment distance of p
// inside t, normalized by len(p).
func score(p, t []rune) float64 {
	m, n := len(p), len(t)
	if m == 0 {
		return 1
	}

	// Three rolling rows: i-2, i-1, i.
	prev2 := make([]int, n+1)
	prev := make([]int, n+1) // row 0: free start anywhere in t
	cur := make([]int, n+1)

	for i := 1; i <= m; i++ {
		cur[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if p[i-1] == t[j-1] {
				cost = 0
			}
			d := min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && p[i-1] == t[j-2] && p[i-2] == t[j-1] {
				d = min(d, prev2[j-2]+1)
			}
			cur[j] = d
		}
		prev2, prev, cur = prev, cur, prev2
	}

	best := prev[0]
	for j := 1; j <= n; j++ {
		best = min(best, prev[j])
	}
	s := float64(best) / float64(m)
	if s > 1 {
		s = 1
	}
	return s
}

// Fold lower-cases s and strips combining marks ("Côte" -> "cote").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
