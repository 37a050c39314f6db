// Package index answers emptydir.Index queries from the local filesystem.
package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/openmined/dirkeep/internal/emptydir"
)

var ErrNotADirectory = errors.New("not a directory")

// Local is an emptydir.Index over a project root on disk. A path is
// tracked when no segment is invisible by name and the ignore list does
// not match it.
type Local struct {
	root   string
	ignore *IgnoreList
}

// NewLocal creates an index for root and loads its ignore file.
func NewLocal(root string) *Local {
	ignore := NewIgnoreList(root)
	ignore.Load()
	return &Local{root: root, ignore: ignore}
}

// Abs maps a project-relative slash path to a filesystem path.
func (l *Local) Abs(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Rel maps a filesystem path below the root to a project-relative slash path.
func (l *Local) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", abs, l.root)
	}
	return filepath.ToSlash(rel), nil
}

func (l *Local) IsDir(path string) bool {
	info, err := os.Stat(l.Abs(path))
	if err != nil || !info.IsDir() {
		return false
	}
	return l.tracked(path, true)
}

func (l *Local) Exists(path string) bool {
	_, err := os.Stat(l.Abs(path))
	return err == nil
}

func (l *Local) IsIndexed(path string) bool {
	info, err := os.Stat(l.Abs(path))
	if err != nil {
		return false
	}
	return l.tracked(path, info.IsDir())
}

// Ignored reports whether path is not tracked given what is on disk now.
// A vanished path gets the directory rules, the looser of the two, so a
// removal is never dropped just because its type is unknown.
func (l *Local) Ignored(path string) bool {
	isDir := true
	if info, err := os.Stat(l.Abs(path)); err == nil {
		isDir = info.IsDir()
	}
	return !l.tracked(path, isDir)
}

func (l *Local) ListFiles(dir string) ([]string, error) {
	entries, err := l.readDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if isDir, _ := l.entryIsDir(dir, e); !isDir {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (l *Local) ListSubdirs(dir string) ([]emptydir.DirEntry, error) {
	entries, err := l.readDir(dir)
	if err != nil {
		return nil, err
	}

	var subdirs []emptydir.DirEntry
	for _, e := range entries {
		isDir, abs := l.entryIsDir(dir, e)
		if !isDir {
			continue
		}
		hidden, err := isHidden(abs)
		if err != nil {
			return nil, fmt.Errorf("attributes of %s: %w", abs, err)
		}
		subdirs = append(subdirs, emptydir.DirEntry{Name: e.Name(), Hidden: hidden})
	}
	return subdirs, nil
}

func (l *Local) readDir(dir string) ([]fs.DirEntry, error) {
	abs := l.Abs(dir)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotADirectory)
	}
	return os.ReadDir(abs)
}

// entryIsDir follows symlinks so linked directories count as directories.
func (l *Local) entryIsDir(dir string, e fs.DirEntry) (bool, string) {
	abs := filepath.Join(l.Abs(dir), e.Name())
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir(), abs
	}
	info, err := os.Stat(abs)
	return err == nil && info.IsDir(), abs
}

func (l *Local) tracked(path string, isDir bool) bool {
	if path == "" {
		return false
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if i == len(segments)-1 && !isDir {
			if emptydir.InvisibleFile(seg) {
				return false
			}
			continue
		}
		if emptydir.Invisible(seg) {
			return false
		}
	}

	if isDir {
		if hidden, _ := isHidden(l.Abs(path)); hidden {
			return false
		}
	}

	return !l.ignore.ShouldIgnore(path)
}

// Dirs walks the root and returns every tracked directory below it, parents
// before children. Untracked directories are not descended into.
func (l *Local) Dirs() ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(l.root, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || abs == l.root {
			return nil
		}
		rel, err := l.Rel(abs)
		if err != nil {
			return err
		}
		if !l.tracked(rel, true) {
			return filepath.SkipDir
		}
		dirs = append(dirs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.root, err)
	}
	return dirs, nil
}
