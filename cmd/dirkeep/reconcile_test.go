package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/openmined/dirkeep/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileCommand_Flags(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/Empty")
	f.write("Assets/Full/a.txt", "a")
	f.write("Assets/Full/"+emptydir.MarkerName, "")

	out, err := f.run("reconcile", "--imported", "Assets/Empty,./Assets/Full/a.txt")
	require.NoError(t, err)

	assert.Contains(t, out, "Assets/Empty")
	assert.Contains(t, out, "Non-empty 2\n")
	assert.FileExists(t, f.abs("Assets/Empty/"+emptydir.MarkerName))
	assert.NoFileExists(t, f.abs("Assets/Full/"+emptydir.MarkerName))
	assert.NoFileExists(t, f.abs(".dirkeep/watch.lock"), "lock released")
	assert.FileExists(t, f.abs(".dirkeep/journal.db"))
}

func TestReconcileCommand_BatchFileAndJSON(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/A/B")
	f.write("Assets/C/"+emptydir.MarkerName, "")
	f.write("batch.yaml", `
imported:
  - Assets/A/B
deleted:
  - Assets/C/gone.png
`)

	out, err := f.run("reconcile", "--batch", f.abs("batch.yaml"), "--json")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.EqualValues(t, 1, res["created"])
	assert.Equal(t, map[string]any{
		"Assets/A/B": "empty_processed",
		"Assets/A":   "non_empty_processed",
		"Assets":     "non_empty_processed",
		"Assets/C":   "empty_processed",
	}, res["states"])

	assert.FileExists(t, f.abs("Assets/A/B/"+emptydir.MarkerName))
	assert.FileExists(t, f.abs("Assets/C/"+emptydir.MarkerName))
}

func TestReconcileCommand_All(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/One")
	f.mkdir("Assets/Two/Three")
	f.mkdir("Library/Four")

	_, err := f.run("reconcile", "--all")
	require.NoError(t, err)

	assert.FileExists(t, f.abs("Assets/One/"+emptydir.MarkerName))
	assert.FileExists(t, f.abs("Assets/Two/Three/"+emptydir.MarkerName))
	assert.NoFileExists(t, f.abs("Assets/Two/"+emptydir.MarkerName))
	assert.NoFileExists(t, f.abs("Library/Four/"+emptydir.MarkerName))

	_, err = f.run("--all-places", "reconcile", "--all")
	require.NoError(t, err)
	assert.FileExists(t, f.abs("Library/Four/"+emptydir.MarkerName))
}

func TestReconcileCommand_SymlinkedProject(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/One")
	f.write("Assets/Two/a.txt", "a")

	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(f.root, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := runCmd(t, "--project", link, "--quiet", "reconcile", "--all")
	require.NoError(t, err)
	assert.FileExists(t, f.abs("Assets/One/"+emptydir.MarkerName))
	assert.NoFileExists(t, f.abs("Assets/Two/"+emptydir.MarkerName))

	out, err := runCmd(t, "--project", link, "--quiet", "status", "--json")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, f.root, report.Project)
}

func TestReconcileCommand_EmptyBatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.run("reconcile")
	assert.ErrorIs(t, err, errEmptyBatch)
}

func TestReconcileCommand_ProjectLocked(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/Empty")

	ws, err := workspace.New(f.root)
	require.NoError(t, err)
	require.NoError(t, ws.Lock())
	t.Cleanup(func() { _ = ws.Unlock() })

	_, err = f.run("reconcile", "--imported", "Assets/Empty")
	assert.ErrorIs(t, err, workspace.ErrProjectLocked)
	assert.NoFileExists(t, f.abs("Assets/Empty/"+emptydir.MarkerName))
}
