package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openmined/dirkeep/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand_WritesConfigOnce(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("--scope", "Assets,Packages/**", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Project initialized")

	cfg, err := config.Load(f.abs(".dirkeep/config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, f.root, cfg.Project)
	assert.Equal(t, []string{"Assets", "Packages/**"}, cfg.Scopes)
	assert.Equal(t, config.DefaultBatchWindow, cfg.BatchWindow)

	out, err = f.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "already initialized")
}

func TestInitCommand_SkipsSessionFlags(t *testing.T) {
	f := newFixture(t)

	_, err := f.run("-v", "--log-file", "dirkeep.log", "init")
	require.NoError(t, err)

	data, err := os.ReadFile(f.abs(".dirkeep/config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "verbose")
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "log_file")
}

func TestLoadConfig_Precedence(t *testing.T) {
	f := newFixture(t)
	f.mkdir("Assets/A")
	f.mkdir("Packages/P/Empty")

	cfg := config.Default(f.root)
	cfg.Scopes = []string{"Packages/*"}
	cfg.BatchWindow = time.Second
	require.NoError(t, cfg.Save(f.abs(".dirkeep/config.yaml")))

	// config file scope applies
	_, err := f.run("reconcile", "--imported", "Assets/A,Packages/P/Empty")
	require.NoError(t, err)
	assert.NoFileExists(t, f.abs("Assets/A/.empty_directory"))
	assert.FileExists(t, f.abs("Packages/P/Empty/.empty_directory"))

	// the environment overrides the file
	t.Setenv("DIRKEEP_ALL_PLACES", "true")
	_, err = f.run("reconcile", "--imported", "Assets/A")
	require.NoError(t, err)
	assert.FileExists(t, f.abs("Assets/A/.empty_directory"))

	// and flags override the environment
	require.NoError(t, os.Remove(f.abs("Assets/A/.empty_directory")))
	_, err = f.run("--all-places=false", "reconcile", "--imported", "Assets/A")
	require.NoError(t, err)
	assert.NoFileExists(t, f.abs("Assets/A/.empty_directory"))
}

func TestLoadConfig_BadScope(t *testing.T) {
	f := newFixture(t)
	_, err := f.run("--scope", "Assets/[", "reconcile", "--all")
	assert.Error(t, err)
}

func TestLoadConfig_MissingProject(t *testing.T) {
	_, err := runCmd(t, "--project", filepath.Join(t.TempDir(), "missing"), "-q", "status")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
