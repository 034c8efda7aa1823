package directory

import (
	"strings"
	"unicode"

	"github.com/krisha-intel/krisha-intel/internal/model"
)

// strippedSuffixes are tried in order; normalize strips the first matching
// suffix and then tries the list again until none matches (spec §4.4.a).
var strippedSuffixes = []string{
	" apartments",
	" apartment",
	" жк",
	" жилой комплекс",
	" residential complex",
	" complex",
	" квартал",
	" quarter",
}

// normalize lower-cases, trims, and strips known suffixes repeatedly until
// none match, so normalize(normalize(x)) == normalize(x) even for a
// pathological double-suffix name (spec §4.4.a, invariant 9).
func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for {
		stripped := false
		for _, suffix := range strippedSuffixes {
			if strings.HasSuffix(n, suffix) {
				n = strings.TrimSpace(strings.TrimSuffix(n, suffix))
				stripped = true
				break
			}
		}
		if !stripped {
			return n
		}
	}
}

func endsInStrippedSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range strippedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// isTitleOrAllCaps reports whether name is Title Case or ALL CAPS, ignoring
// non-letter characters.
func isTitleOrAllCaps(name string) bool {
	return isAllCaps(name) || isTitleCase(name)
}

func isAllCaps(name string) bool {
	sawLetter := false
	for _, r := range name {
		if !unicode.IsLetter(r) {
			continue
		}
		sawLetter = true
		if unicode.IsLower(r) {
			return false
		}
	}
	return sawLetter
}

func isTitleCase(name string) bool {
	words := strings.Fields(name)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if !unicode.IsLetter(r[0]) || !unicode.IsUpper(r[0]) {
			return false
		}
		for _, c := range r[1:] {
			if unicode.IsLetter(c) && unicode.IsUpper(c) {
				return false
			}
		}
	}
	return true
}

// score ranks a candidate within a normalized-name group, per spec §4.4.a.
func score(c model.Complex, searchTerm string) int {
	s := len(c.Name)
	if isTitleOrAllCaps(c.Name) {
		s += 10
	}
	if !endsInStrippedSuffix(c.Name) {
		s += 5
	}
	if searchTerm != "" && strings.HasPrefix(strings.ToLower(c.Name), strings.ToLower(searchTerm)) {
		s += 20
	}
	return s
}

// dedupe groups complexes by normalized name and returns one representative
// per group, the highest-scoring member, in first-seen group order.
func dedupe(complexes []model.Complex, searchTerm string) []model.Complex {
	type group struct {
		best      model.Complex
		bestScore int
	}
	order := make([]string, 0, len(complexes))
	groups := make(map[string]*group, len(complexes))

	for _, c := range complexes {
		key := normalize(c.Name)
		g, ok := groups[key]
		s := score(c, searchTerm)
		if !ok {
			groups[key] = &group{best: c, bestScore: s}
			order = append(order, key)
			continue
		}
		if s > g.bestScore {
			g.best = c
			g.bestScore = s
		}
	}

	out := make([]model.Complex, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key].best)
	}
	return out
}
