package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarksConsumeIsTestAndClear(t *testing.T) {
	m, err := OpenMarks(filepath.Join(t.TempDir(), "marks.db"), newFakeClock())
	require.NoError(t, err)

	key := KeyFor("u", "s", "url")
	marked, err := m.ConsumeRefreshMark(key)
	require.NoError(t, err)
	assert.False(t, marked)

	require.NoError(t, m.MarkForRefresh(key))
	require.NoError(t, m.MarkForRefresh(key), "marking twice is idempotent")

	marked, err = m.ConsumeRefreshMark(key)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = m.ConsumeRefreshMark(key)
	require.NoError(t, err)
	assert.False(t, marked)
}

func TestMarksSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.db")
	m, err := OpenMarks(path, nil)
	require.NoError(t, err)
	require.NoError(t, m.MarkForRefresh("k"))
	require.NoError(t, m.SetLastURL("alice@srv", "http://srv/Users/u/Views"))

	again, err := OpenMarks(path, nil)
	require.NoError(t, err)
	url, ok := again.LastURL("alice@srv")
	assert.True(t, ok)
	assert.Equal(t, "http://srv/Users/u/Views", url)

	marked, err := again.ConsumeRefreshMark("k")
	require.NoError(t, err)
	assert.True(t, marked)

	_, ok = again.LastURL("bob@srv")
	assert.False(t, ok)
}

func TestMarksReset(t *testing.T) {
	m, err := OpenMarks(filepath.Join(t.TempDir(), "marks.db"), nil)
	require.NoError(t, err)
	require.NoError(t, m.MarkForRefresh("k"))
	require.NoError(t, m.SetLastURL("id", "u"))

	require.NoError(t, m.Reset())

	marked, err := m.ConsumeRefreshMark("k")
	require.NoError(t, err)
	assert.False(t, marked)
	_, ok := m.LastURL("id")
	assert.False(t, ok)
}
