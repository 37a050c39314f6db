package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// runCmd executes a fresh command tree in-process so flag values never leak
// between tests.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "dirkeep", SilenceUsage: true, SilenceErrors: true}
	addPersistentFlags(root)
	root.AddCommand(
		newReconcileCmd(),
		newWatchCmd(),
		newCheckCmd(),
		newStatusCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	root.SetContext(t.Context())

	err := root.Execute()
	return stripANSI(out.String()), err
}

type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &fixture{t: t, root: root}
}

func (f *fixture) abs(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

func (f *fixture) mkdir(rel string) {
	require.NoError(f.t, os.MkdirAll(f.abs(rel), 0o755))
}

func (f *fixture) write(rel, content string) {
	require.NoError(f.t, os.MkdirAll(filepath.Dir(f.abs(rel)), 0o755))
	require.NoError(f.t, os.WriteFile(f.abs(rel), []byte(content), 0o644))
}

func (f *fixture) run(args ...string) (string, error) {
	f.t.Helper()
	return runCmd(f.t, append([]string{"--project", f.root, "--quiet"}, args...)...)
}
