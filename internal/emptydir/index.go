package emptydir

// DirEntry is an immediate subdirectory as reported by an Index.
type DirEntry struct {
	Name   string
	Hidden bool
}

// Index answers the questions the reconciler needs about project paths.
// Paths are project-relative and use '/' as separator.
type Index interface {
	// IsDir reports whether path is a directory known to the index.
	IsDir(path string) bool
	// Exists reports whether path is present on disk right now.
	Exists(path string) bool
	// IsIndexed reports whether path is a tracked entity of any kind.
	IsIndexed(path string) bool
	// ListFiles returns the names of the regular files directly inside dir.
	ListFiles(dir string) ([]string, error)
	// ListSubdirs returns the subdirectories directly inside dir.
	ListSubdirs(dir string) ([]DirEntry, error)
}

// MarkerStore creates and deletes the marker file of a directory.
// Both operations are idempotent; the bool reports whether the disk changed.
type MarkerStore interface {
	Ensure(dir string) (bool, error)
	Remove(dir string) (bool, error)
}

// Recorder is notified after every successful marker operation.
type Recorder interface {
	MarkerSet(batchID, dir string) error
	MarkerCleared(batchID, dir string) error
}

// NoopRecorder discards all notifications.
type NoopRecorder struct{}

func (NoopRecorder) MarkerSet(string, string) error     { return nil }
func (NoopRecorder) MarkerCleared(string, string) error { return nil }
