package manifest

import (
	"strconv"
	"strings"
	"unicode"
)

// slugger produces URL-safe slugs, disambiguating repeated inputs
// with an incrementing suffix: "dune", "dune-1", "dune-2". State is
// scoped to one seed cycle so ids stay deterministic per manifest.
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: make(map[string]int)}
}

func (s *slugger) slug(text string) string {
	base := slugify(text)
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// slugify lowercases, turns whitespace into hyphens, and drops
// punctuation outright ("Mr. Robot" -> "mr-robot").
func slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteByte('-')
		}
	}
	return b.String()
}
