package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ emptydir.Recorder = (*Journal)(nil)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j := New(filepath.Join(t.TempDir(), ".dirkeep", "journal.db"))
	require.NoError(t, j.Open())
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_SetClearList(t *testing.T) {
	j := openJournal(t)
	j.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, j.MarkerSet("b1", "Assets/B"))
	require.NoError(t, j.MarkerSet("b1", "Assets/A"))
	require.NoError(t, j.MarkerSet("b2", "Assets/A"))

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Assets/A", entries[0].Path)
	assert.Equal(t, "b2", entries[0].BatchID, "upsert keeps the latest batch")
	assert.Equal(t, j.now(), entries[0].UpdatedAt)

	require.NoError(t, j.MarkerCleared("b3", "Assets/A"))
	require.NoError(t, j.MarkerCleared("b3", "Assets/Unknown"))

	count, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJournal_ClosedErrors(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "journal.db"))

	assert.ErrorIs(t, j.MarkerSet("b", "x"), ErrJournalClosed)
	assert.ErrorIs(t, j.MarkerCleared("b", "x"), ErrJournalClosed)
	_, err := j.List()
	assert.ErrorIs(t, err, ErrJournalClosed)
	assert.ErrorIs(t, j.Close(), ErrJournalClosed)

	require.NoError(t, j.Open())
	assert.Error(t, j.Open(), "double open")
	require.NoError(t, j.Close())
}

func TestJournal_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j := New(path)
	require.NoError(t, j.Open())
	require.NoError(t, j.MarkerSet("b1", "Assets/Empty"))
	require.NoError(t, j.Close())

	j = New(path)
	require.NoError(t, j.Open())
	defer j.Close()

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Assets/Empty", entries[0].Path)
}
