package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/openmined/dirkeep/internal/config"
	"github.com/openmined/dirkeep/internal/utils"
)

const (
	lockFile    = "watch.lock"
	journalFile = "journal.db"
	logsDir     = "logs"
)

var (
	ErrProjectLocked = errors.New("project locked by another dirkeep process")
	ErrNoProject     = errors.New("no initialized project found")
)

// Workspace is the on-disk layout of a project's metadata directory.
type Workspace struct {
	Root        string
	MetadataDir string
	ConfigPath  string
	JournalPath string
	LogsDir     string

	flock *flock.Flock
}

func New(rootDir string) (*Workspace, error) {
	root, err := utils.RealPath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	metadataDir := filepath.Join(root, config.MetadataDir)
	return &Workspace{
		Root:        root,
		MetadataDir: metadataDir,
		ConfigPath:  config.DefaultPath(root),
		JournalPath: filepath.Join(metadataDir, journalFile),
		LogsDir:     filepath.Join(metadataDir, logsDir),
		flock:       flock.New(filepath.Join(metadataDir, lockFile)),
	}, nil
}

// Setup creates the metadata layout. It does not take the lock.
func (w *Workspace) Setup() error {
	if !utils.DirExists(w.Root) {
		return fmt.Errorf("project %s: %w", w.Root, os.ErrNotExist)
	}

	for _, dir := range []string{w.MetadataDir, w.LogsDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	slog.Debug("workspace", "root", w.Root, "metadata", w.MetadataDir)
	return nil
}

// Lock makes sure only one watcher reconciles a project at a time.
func (w *Workspace) Lock() error {
	if err := utils.EnsureDir(w.MetadataDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.MetadataDir, err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock project: %w", err)
	}
	if !locked {
		return ErrProjectLocked
	}

	return nil
}

func (w *Workspace) Unlock() error {
	// only the owner removes the lock file
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock project: %w", err)
	}

	return os.Remove(w.flock.Path())
}

func (w *Workspace) LockPath() string {
	return w.flock.Path()
}

// Initialized reports whether a config file exists for the project.
func (w *Workspace) Initialized() bool {
	return utils.FileExists(w.ConfigPath)
}

// FindRoot walks up from dir to the nearest directory holding a metadata
// directory, so commands work from anywhere inside an initialized project.
func FindRoot(dir string) (string, error) {
	dir, err := utils.ResolvePath(dir)
	if err != nil {
		return "", err
	}

	for {
		if utils.DirExists(filepath.Join(dir, config.MetadataDir)) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}
