package main

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand_NoJournal(t *testing.T) {
	f := newFixture(t)
	out, err := f.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "No journal")
}

func TestStatusCommand_ListsJournaledMarkers(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/B")
	f.mkdir("Assets/A")

	_, err := f.run("reconcile", "--imported", "Assets/B,Assets/A")
	require.NoError(t, err)

	out, err := f.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Markers")
	assert.Contains(t, out, "Scope     Assets\n")
	assert.Contains(t, out, "  Assets/A ")
	assert.Contains(t, out, "  Assets/B ")

	out, err = f.run("status", "--json")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"Assets"}, report.Scopes)
	require.Len(t, report.Markers, 2)
	assert.Equal(t, "Assets/A", report.Markers[0].Path)
	assert.Equal(t, report.Markers[0].BatchID, report.Markers[1].BatchID)
	assert.Positive(t, report.Size)
}

func TestStatusCommand_JournalDisabled(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/A")

	_, err := f.run("--journal=false", "reconcile", "--imported", "Assets/A")
	require.NoError(t, err)
	assert.NoFileExists(t, f.abs(".dirkeep/journal.db"))
}

func TestStatusCommand_AllPlacesScope(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Library/A")

	_, err := f.run("--all-places", "reconcile", "--imported", "Library/A")
	require.NoError(t, err)

	out, err := f.run("--all-places", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Scope     everywhere")
	assert.Contains(t, out, "  Library/A ")
}
