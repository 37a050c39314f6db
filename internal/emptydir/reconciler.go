// Package emptydir keeps ".empty_directory" markers in sync with directory
// contents for the paths named in a change batch and their ancestors.
package emptydir

import (
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Reconciler converges marker files for the directories touched by a batch.
// It is not safe for concurrent use; callers serialize batches.
type Reconciler struct {
	index    Index
	markers  MarkerStore
	scope    Scope
	recorder Recorder
	logger   *slog.Logger
}

type Option func(*Reconciler)

// WithScope limits processing to paths inside s.
func WithScope(s Scope) Option {
	return func(r *Reconciler) {
		r.scope = s
	}
}

// WithRecorder registers a Recorder for marker operations.
func WithRecorder(rec Recorder) Option {
	return func(r *Reconciler) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithLogger sets the diagnostics sink. A nil logger suppresses all output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l == nil {
			l = discardLogger
		}
		r.logger = l
	}
}

// New creates a Reconciler that acts on every path unless WithScope is given.
func New(index Index, markers MarkerStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		index:    index,
		markers:  markers,
		recorder: NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process reconciles one batch. Imported, moved, deleted and moved-from
// paths are handled in that order, each list in delivery order. Errors on
// a path are logged and never stop the batch.
func (r *Reconciler) Process(batch Batch) *Result {
	run := &batchRun{
		Reconciler: r,
		table:      make(stateTable),
		result:     &Result{BatchID: uuid.NewString()},
	}
	run.log = r.logger.With("batch", run.result.BatchID)

	start := time.Now()
	run.log.Debug("batch start",
		"imported", len(batch.Imported),
		"moved", len(batch.Moved),
		"deleted", len(batch.Deleted),
		"movedFrom", len(batch.MovedFrom),
	)

	for _, path := range batch.Imported {
		run.processPath(path, false)
	}
	for _, path := range batch.Moved {
		run.processPath(path, false)
	}
	for _, path := range batch.Deleted {
		run.processGone(path)
	}
	for _, path := range batch.MovedFrom {
		run.processGone(path)
	}

	res := run.result
	res.States = maps.Clone(run.table)
	res.Took = time.Since(start)

	run.log.Info("batch reconciled",
		"paths", batch.Len(),
		"checked", res.Checked,
		"created", res.Created,
		"removed", res.Removed,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"took", res.Took,
	)
	return res
}

// batchRun holds the state of a single Process call.
type batchRun struct {
	*Reconciler
	table  stateTable
	result *Result
	log    *slog.Logger
}

// processGone handles a path whose entity no longer exists by processing
// its containing directory, which may itself be gone.
func (b *batchRun) processGone(path string) {
	dir, ok := parentDir(path)
	if !ok {
		return
	}
	b.processPath(dir, true)
}

func (b *batchRun) processPath(path string, mayBeMissing bool) {
	if !b.scope.Contains(path) {
		return
	}

	if b.index.IsDir(path) {
		if mayBeMissing && !b.index.Exists(path) {
			b.result.Skipped++
			return
		}

		if state, _ := b.table.get(path); b.table.overwritable(path) {
			// A directory already inferred non-empty needs no listing.
			if state == NotProcessed && b.isEmpty(path) {
				b.table[path] = EmptyProcessed
				b.ensureMarker(path)
			} else {
				b.table[path] = NonEmptyProcessed
				b.removeMarker(path)
			}
		}
	} else if !b.index.IsIndexed(path) {
		b.result.Skipped++
		return
	}

	parent, ok := parentDir(path)
	if !ok {
		return
	}
	if mayBeMissing && !b.index.Exists(parent) {
		b.result.Skipped++
		return
	}

	// path exists, so its parent cannot be empty
	if b.table.overwritable(parent) {
		b.table[parent] = NonEmptyProcessed
		b.removeMarker(parent)
		b.propagateNonEmpty(parent)
	}
}

// propagateNonEmpty records every ancestor of dir as non-empty without
// touching its marker. The walk stops at the first ancestor that already
// carries information.
func (b *batchRun) propagateNonEmpty(dir string) {
	for {
		parent, ok := parentDir(dir)
		if !ok {
			return
		}
		dir = parent

		if state, ok := b.table.get(dir); ok && state != NotProcessed {
			return
		}
		b.table[dir] = NonEmptyNotProcessed
	}
}

func (b *batchRun) isEmpty(dir string) bool {
	b.result.Checked++
	empty, err := IsEmpty(b.index, dir)
	if err != nil {
		b.result.Errors++
		b.log.Error("emptiness check", "dir", dir, "error", err)
		return false
	}
	return empty
}

func (b *batchRun) ensureMarker(dir string) {
	created, err := b.markers.Ensure(dir)
	if err != nil {
		b.result.Errors++
		b.log.Error("ensure marker", "dir", dir, "error", err)
		return
	}
	if created {
		b.result.Created++
	}
	if err := b.recorder.MarkerSet(b.result.BatchID, dir); err != nil {
		b.log.Warn("record marker", "dir", dir, "error", err)
	}
}

func (b *batchRun) removeMarker(dir string) {
	removed, err := b.markers.Remove(dir)
	if err != nil {
		b.result.Errors++
		b.log.Error("remove marker", "dir", dir, "error", err)
		return
	}
	if removed {
		b.result.Removed++
	}
	if err := b.recorder.MarkerCleared(b.result.BatchID, dir); err != nil {
		b.log.Warn("record marker", "dir", dir, "error", err)
	}
}
