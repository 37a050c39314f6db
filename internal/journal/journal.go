// Package journal persists which directories currently carry a marker.
package journal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/dirkeep/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS markers (
    path TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);

CREATE INDEX IF NOT EXISTS idx_markers_updated_at ON markers(updated_at);
`

var ErrJournalClosed = errors.New("journal not open")

// Entry is one marked directory.
type Entry struct {
	Path      string    `json:"path"`
	BatchID   string    `json:"batch_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type dbEntry struct {
	Path      string `db:"path"`
	BatchID   string `db:"batch_id"`
	UpdatedAt string `db:"updated_at"`
}

// Journal implements emptydir.Recorder on top of SQLite.
type Journal struct {
	db     *sqlx.DB
	dbPath string
	now    func() time.Time
}

func New(dbPath string) *Journal {
	return &Journal{dbPath: dbPath, now: time.Now}
}

func (j *Journal) Open() error {
	if j.db != nil {
		return fmt.Errorf("journal already open")
	}

	conn, err := db.NewSqliteDB(db.WithPath(j.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return fmt.Errorf("initialize journal schema: %w", err)
	}

	j.db = conn
	return nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return ErrJournalClosed
	}
	err := j.db.Close()
	j.db = nil
	if err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	slog.Debug("journal closed", "path", j.dbPath)
	return nil
}

// MarkerSet records that dir carries a marker.
func (j *Journal) MarkerSet(batchID, dir string) error {
	if j.db == nil {
		return ErrJournalClosed
	}

	row := dbEntry{
		Path:      dir,
		BatchID:   batchID,
		UpdatedAt: j.now().UTC().Format(time.RFC3339),
	}
	query := `INSERT INTO markers (path, batch_id, updated_at) VALUES (:path, :batch_id, :updated_at)
	          ON CONFLICT(path) DO UPDATE SET batch_id = excluded.batch_id, updated_at = excluded.updated_at`
	if _, err := j.db.NamedExec(query, row); err != nil {
		return fmt.Errorf("record marker %s: %w", dir, err)
	}
	return nil
}

// MarkerCleared forgets dir.
func (j *Journal) MarkerCleared(_, dir string) error {
	if j.db == nil {
		return ErrJournalClosed
	}
	if _, err := j.db.Exec("DELETE FROM markers WHERE path = ?", dir); err != nil {
		return fmt.Errorf("clear marker %s: %w", dir, err)
	}
	return nil
}

// List returns all marked directories ordered by path.
func (j *Journal) List() ([]Entry, error) {
	if j.db == nil {
		return nil, ErrJournalClosed
	}

	var rows []dbEntry
	if err := j.db.Select(&rows, "SELECT path, batch_id, updated_at FROM markers ORDER BY path"); err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		updated, err := time.Parse(time.RFC3339, r.UpdatedAt)
		if err != nil {
			slog.Warn("journal entry with bad timestamp", "path", r.Path, "value", r.UpdatedAt, "error", err)
			continue
		}
		entries = append(entries, Entry{Path: r.Path, BatchID: r.BatchID, UpdatedAt: updated})
	}
	return entries, nil
}

func (j *Journal) Count() (int, error) {
	if j.db == nil {
		return 0, ErrJournalClosed
	}
	var count int
	if err := j.db.Get(&count, "SELECT COUNT(*) FROM markers"); err != nil {
		return 0, fmt.Errorf("count markers: %w", err)
	}
	return count, nil
}
