package emptydir

import (
	"fmt"
	"strings"
)

// Invisible reports whether an entry name is never considered content,
// whatever its type: empty names, dot-files, backup files ending in '~'
// and CVS directories.
func Invisible(name string) bool {
	if name == "" || name[0] == '.' || name[len(name)-1] == '~' {
		return true
	}
	return strings.EqualFold(name, "cvs")
}

// InvisibleFile applies the file rules: Invisible plus "*.tmp".
func InvisibleFile(name string) bool {
	if Invisible(name) {
		return true
	}
	const tmp = ".tmp"
	return len(name) >= len(tmp) && strings.EqualFold(name[len(name)-len(tmp):], tmp)
}

// InvisibleDir applies the subdirectory rules: Invisible plus the hidden attribute.
func InvisibleDir(e DirEntry) bool {
	return e.Hidden || Invisible(e.Name)
}

// IsEmpty reports whether dir has no visible files and no visible
// subdirectories. The marker file is a dot-file and never counts.
// On error the directory must be treated as non-empty by the caller.
func IsEmpty(index Index, dir string) (bool, error) {
	files, err := index.ListFiles(dir)
	if err != nil {
		return false, fmt.Errorf("list files of %s: %w", dir, err)
	}
	for _, name := range files {
		if !InvisibleFile(name) {
			return false, nil
		}
	}

	subdirs, err := index.ListSubdirs(dir)
	if err != nil {
		return false, fmt.Errorf("list subdirectories of %s: %w", dir, err)
	}
	for _, e := range subdirs {
		if !InvisibleDir(e) {
			return false, nil
		}
	}

	return true, nil
}
