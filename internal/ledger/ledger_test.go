package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "errors.log"))
}

func TestHasPending_EmptyLedger(t *testing.T) {
	l := testLedger(t)

	assert.False(t, l.HasPending())
}

func TestRecord_ThenListPending(t *testing.T) {
	l := testLedger(t)

	require.NoError(t, l.Record("rsync failed with exit code 23"))
	require.NoError(t, l.Record("archive is corrupted"))

	entries, err := l.ListPending()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rsync failed with exit code 23", entries[0])
	assert.Equal(t, "archive is corrupted", entries[1])
	assert.True(t, l.HasPending())
}

func TestRecord_FlattensNewlines(t *testing.T) {
	l := testLedger(t)

	require.NoError(t, l.Record("first line\nsecond line"))

	entries, err := l.ListPending()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first line second line", entries[0])
}

func TestClear_EmptiesLedger(t *testing.T) {
	l := testLedger(t)
	require.NoError(t, l.Record("something went wrong"))
	require.True(t, l.HasPending())

	require.NoError(t, l.Clear())

	assert.False(t, l.HasPending())
	entries, err := l.ListPending()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClear_MissingFileIsNotAnError(t *testing.T) {
	l := testLedger(t)

	assert.NoError(t, l.Clear())
}

func TestLedger_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	require.NoError(t, New(path).Record("half-written archive left behind"))

	reopened := New(path)
	assert.True(t, reopened.HasPending())
}
