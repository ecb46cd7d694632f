package search

import (
	"sort"
	"strings"

	"github.com/hsorel/shelf/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"
)

// minScore is the minimum relevance a match needs to stay in the
// result set. Scattered single-character matches score negative and
// are dropped.
const minScore = 0

// corpus implements sahilm/fuzzy.Source over combined title+author
// keys for zero-allocation matching.
type corpus struct {
	keys []string
}

func (c corpus) String(i int) string { return c.keys[i] }
func (c corpus) Len() int            { return len(c.keys) }

// Rank returns the records matching query, ordered by relevance (best
// first). Matching is keyed on title and author; records below the
// relevance threshold are excluded. The input order carries no weight:
// callers hand over candidates in whatever order their index produced
// them, and the ranked order replaces it.
func Rank(records []domain.Record, query string) []domain.Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}

	c := corpus{keys: make([]string, len(records))}
	for i, r := range records {
		c.keys[i] = r.TitleLowercase + " " + strings.ToLower(r.Author)
	}

	matches := sahilm.FindFrom(query, c)

	kept := matches[:0]
	for _, m := range matches {
		if m.Score >= minScore {
			kept = append(kept, m)
		}
	}

	// FindFrom sorts by score; break ties by edit distance to the
	// title so the closest title wins.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		di := fuzzy.LevenshteinDistance(query, records[kept[i].Index].TitleLowercase)
		dj := fuzzy.LevenshteinDistance(query, records[kept[j].Index].TitleLowercase)
		return di < dj
	})

	ranked := make([]domain.Record, len(kept))
	for i, m := range kept {
		ranked[i] = records[m.Index]
	}
	return ranked
}
