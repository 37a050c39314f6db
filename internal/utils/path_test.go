package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{name: "empty path", input: "", wantError: true},
		{name: "home", input: "~", want: filepath.Clean(home)},
		{name: "under home", input: "~/project", want: filepath.Join(home, "project")},
		{name: "tilde inside name is literal", input: "/tmp/~x", want: filepath.Clean("/tmp/~x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.input)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrEmptyPath)
				return
			}
			require.NoError(t, err)
			if tt.want != "" && filepath.IsAbs(tt.want) {
				assert.Equal(t, tt.want, got)
			}
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestEnsureParentAndExists(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a", "b", "c.txt")

	require.NoError(t, EnsureParent(file))
	assert.True(t, DirExists(filepath.Dir(file)))
	assert.False(t, FileExists(file))

	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.True(t, FileExists(file))
	assert.False(t, DirExists(file))

	// idempotent
	require.NoError(t, EnsureDir(filepath.Dir(file)))
}

func TestNormPath(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty-is-local-dir", "", "."},
		{"relative", "./Assets/A/", "Assets/A"},
		{"absolute", "/Assets/A", "Assets/A"},
		{"backslashes", "Assets\\A\\b.png", "Assets/A/b.png"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, NormPath(c.input))
		})
	}
}

func TestRealPath_EvaluatesSymlinks(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	real := filepath.Join(base, "real")
	require.NoError(t, os.Mkdir(real, 0o755))
	link := filepath.Join(base, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := RealPath(link)
	require.NoError(t, err)
	assert.Equal(t, real, got)

	missing := filepath.Join(link, "not-yet")
	got, err = RealPath(missing)
	require.NoError(t, err)
	assert.Equal(t, missing, got, "missing paths are returned unresolved")

	_, err = RealPath("")
	assert.ErrorIs(t, err, ErrEmptyPath)
}
