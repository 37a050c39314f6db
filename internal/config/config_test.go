package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_ResolvesProject(t *testing.T) {
	tmp := t.TempDir()
	cfg := Default(tmp)
	cfg.LogFile = filepath.Join("logs", "dirkeep.log")

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.Project))
	assert.Equal(t, filepath.Join(cfg.Project, "logs", "dirkeep.log"), cfg.LogFile)

	scope, err := cfg.Scope()
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets"}, scope.Patterns())
}

func TestConfig_Validate_Errors(t *testing.T) {
	tmp := t.TempDir()

	t.Run("no project", func(t *testing.T) {
		err := Default("").Validate()
		assert.ErrorIs(t, err, ErrNoProject)
	})

	t.Run("missing project", func(t *testing.T) {
		err := Default(filepath.Join(tmp, "nope")).Validate()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad window", func(t *testing.T) {
		cfg := Default(tmp)
		cfg.BatchWindow = 0
		assert.ErrorIs(t, cfg.Validate(), ErrBadBatchWindow)
	})

	t.Run("bad scope", func(t *testing.T) {
		cfg := Default(tmp)
		cfg.Scopes = []string{"Assets/[unclosed"}
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_AllPlacesDisablesScope(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.AllPlaces = true
	cfg.Scopes = []string{"Assets/[unclosed"}

	scope, err := cfg.Scope()
	require.NoError(t, err)
	assert.True(t, scope.AllPlaces())
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := DefaultPath(tmp)

	cfg := Default(tmp)
	cfg.Scopes = []string{"Assets", "Packages/*"}
	cfg.BatchWindow = time.Second
	require.NoError(t, cfg.Save(path))
	assert.Equal(t, path, cfg.Path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Scopes, loaded.Scopes)
	assert.Equal(t, time.Second, loaded.BatchWindow)
	assert.True(t, loaded.Journal)
	assert.Equal(t, path, loaded.Path)
}

func TestConfig_SaveOmitsVerbosity(t *testing.T) {
	tmp := t.TempDir()
	path := DefaultPath(tmp)

	cfg := Default(tmp)
	cfg.Verbose = true
	cfg.Quiet = true
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "verbose")
	assert.NotContains(t, string(data), "quiet")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.Verbose)
	assert.False(t, loaded.Quiet)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("all_places: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.AllPlaces)
	assert.Equal(t, DefaultBatchWindow, cfg.BatchWindow)
	assert.Equal(t, []string{"Assets"}, cfg.Scopes)
}
