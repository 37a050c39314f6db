package emptydir

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// MarkerName is the zero-byte file that keeps an empty directory alive in VCS.
const MarkerName = ".empty_directory"

// FileMarkers is a MarkerStore writing markers below a project root.
type FileMarkers struct {
	root   string
	logger *slog.Logger
}

// NewFileMarkers returns a store resolving project-relative directories
// against root. A nil logger discards the per-marker traces.
func NewFileMarkers(root string, logger *slog.Logger) *FileMarkers {
	if logger == nil {
		logger = discardLogger
	}
	return &FileMarkers{root: root, logger: logger}
}

// MarkerPath returns the on-disk path of dir's marker.
func (m *FileMarkers) MarkerPath(dir string) string {
	return filepath.Join(m.root, filepath.FromSlash(dir), MarkerName)
}

// Ensure creates the marker if it does not exist yet.
func (m *FileMarkers) Ensure(dir string) (bool, error) {
	path := m.MarkerPath(dir)

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		m.logger.Debug("marker already exists", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create marker %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return true, fmt.Errorf("close marker %s: %w", path, err)
	}

	m.logger.Debug("marker created", "path", path)
	return true, nil
}

// Remove deletes the marker if present.
func (m *FileMarkers) Remove(dir string) (bool, error) {
	path := m.MarkerPath(dir)

	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Debug("marker already absent", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete marker %s: %w", path, err)
	}

	m.logger.Debug("marker deleted", "path", path)
	return true, nil
}
