package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/jellyshelf/internal/domain"
	sfuzzy "github.com/sahilm/fuzzy"
)

// Match is one item that matched a query
type Match struct {
	Index          int   // Index in source slice
	Score          int   // Filter: higher = better. Rank: edit distance, lower = better
	MatchedIndexes []int // Character positions that matched (for highlighting)
}

// titleIndex implements sahilm/fuzzy.Source over pre-lowered titles
type titleIndex struct {
	lowerTitles []string
}

func (idx titleIndex) String(i int) string { return idx.lowerTitles[i] }

func (idx titleIndex) Len() int { return len(idx.lowerTitles) }

func newTitleIndex(titles []string) titleIndex {
	lower := make([]string, len(titles))
	for i, t := range titles {
		lower[i] = strings.ToLower(t)
	}
	return titleIndex{lowerTitles: lower}
}

// Titles returns the display names of items, in order
func Titles(items []domain.DisplayItem) []string {
	titles := make([]string, len(items))
	for i := range items {
		titles[i] = items[i].Name
	}
	return titles
}

// Filter narrows an on-screen list as the user types. Characters of the
// query must appear in order; matched positions are returned for highlighting.
// Results are ordered best first.
func Filter(titles []string, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(titles) == 0 {
		return nil
	}

	found := sfuzzy.FindFrom(strings.ToLower(query), newTitleIndex(titles))
	matches := make([]Match, len(found))
	for i, m := range found {
		matches[i] = Match{
			Index:          m.Index,
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		}
	}
	return matches
}

// Rank orders titles containing the query as a case-insensitive subsequence
// by edit distance. Ties keep listing order.
func Rank(titles []string, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(titles) == 0 {
		return nil
	}

	// Distance is computed on the lowered strings so case never costs an edit
	ranks := fuzzy.RankFind(strings.ToLower(query), newTitleIndex(titles).lowerTitles)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	matches := make([]Match, len(ranks))
	for i, r := range ranks {
		matches[i] = Match{Index: r.OriginalIndex, Score: r.Distance}
	}
	return matches
}
