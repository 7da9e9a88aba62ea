package search

import (
	"testing"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var titles = []string{"Alien", "Aliens", "Brazil", "The Thing", "Alien: Romulus"}

func TestFilter(t *testing.T) {
	matches := Filter(titles, "ALI")
	require.NotEmpty(t, matches)

	got := make([]string, len(matches))
	for i, m := range matches {
		got[i] = titles[m.Index]
	}
	assert.ElementsMatch(t, []string{"Alien", "Aliens", "Alien: Romulus"}, got)
	assert.Equal(t, []int{0, 1, 2}, matches[0].MatchedIndexes)
}

func TestFilterSubsequence(t *testing.T) {
	matches := Filter(titles, "tthg")
	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].Index)
}

func TestFilterEmpty(t *testing.T) {
	assert.Nil(t, Filter(titles, "  "))
	assert.Nil(t, Filter(nil, "alien"))
	assert.Empty(t, Filter(titles, "zzz"))
}

func TestRankOrdersByDistance(t *testing.T) {
	matches := Rank(titles, "alien")
	require.Len(t, matches, 3)
	assert.Equal(t, "Alien", titles[matches[0].Index])
	assert.Equal(t, 0, matches[0].Score)
	assert.Equal(t, "Aliens", titles[matches[1].Index])
	assert.Equal(t, "Alien: Romulus", titles[matches[2].Index])
}

func TestRankIgnoresCaseInDistance(t *testing.T) {
	matches := Rank([]string{"Alien", "alien", "ALIENS"}, "Alien")
	require.Len(t, matches, 3)
	assert.Equal(t, 0, matches[0].Index)
	assert.Equal(t, 0, matches[0].Score)
	assert.Equal(t, 1, matches[1].Index)
	assert.Equal(t, 0, matches[1].Score)
	assert.Equal(t, 2, matches[2].Index)
	assert.Equal(t, 1, matches[2].Score)
}

func TestRankEmpty(t *testing.T) {
	assert.Nil(t, Rank(titles, ""))
	assert.Empty(t, Rank(titles, "xyz"))
}

func TestTitles(t *testing.T) {
	items := []domain.DisplayItem{{ID: "1", Name: "Alien"}, {ID: "2", Name: "Brazil"}}
	assert.Equal(t, []string{"Alien", "Brazil"}, Titles(items))
}
