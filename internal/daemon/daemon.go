// Package daemon runs the watch loop: file events are coalesced into
// batches and reconciled one at a time.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/openmined/dirkeep/internal/config"
	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/openmined/dirkeep/internal/index"
	"github.com/openmined/dirkeep/internal/journal"
	"github.com/openmined/dirkeep/internal/watch"
	"github.com/openmined/dirkeep/internal/workspace"
	"golang.org/x/sync/errgroup"
)

const batchQueueSize = 16

type Option func(*Daemon)

// WithResultHandler is called after every reconciled batch, from the consumer goroutine.
func WithResultHandler(fn func(*emptydir.Result)) Option {
	return func(d *Daemon) {
		d.onResult = fn
	}
}

// WithSweep reconciles every tracked directory before watching starts.
func WithSweep(sweep bool) Option {
	return func(d *Daemon) {
		d.sweep = sweep
	}
}

type Daemon struct {
	cfg        *config.Config
	ws         *workspace.Workspace
	index      *index.Local
	journal    *journal.Journal
	reconciler *emptydir.Reconciler
	watcher    *watch.FileWatcher
	collector  *watch.Collector
	logger     *slog.Logger

	sweep    bool
	onResult func(*emptydir.Result)
}

// New wires a daemon for an already validated config.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ws, err := workspace.New(cfg.Project)
	if err != nil {
		return nil, err
	}

	scope, err := cfg.Scope()
	if err != nil {
		return nil, err
	}

	idx := index.NewLocal(ws.Root)
	d := &Daemon{
		cfg:       cfg,
		ws:        ws,
		index:     idx,
		watcher:   watch.NewFileWatcher(ws.Root),
		collector: watch.NewCollector(idx, cfg.BatchWindow),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}

	reconcilerOpts := []emptydir.Option{
		emptydir.WithScope(scope),
		emptydir.WithLogger(logger),
	}
	if cfg.Journal {
		d.journal = journal.New(ws.JournalPath)
		reconcilerOpts = append(reconcilerOpts, emptydir.WithRecorder(d.journal))
	}
	d.reconciler = emptydir.New(idx, emptydir.NewFileMarkers(ws.Root, logger), reconcilerOpts...)

	d.watcher.FilterPaths(d.dropEvent)
	return d, nil
}

// Start blocks until ctx is cancelled or the watcher fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.logger.Info("watch daemon start", "project", d.ws.Root, "scopes", d.cfg.Scopes, "allPlaces", d.cfg.AllPlaces)

	if err := d.ws.Setup(); err != nil {
		return err
	}
	if err := d.ws.Lock(); err != nil {
		return err
	}
	d.logger.Debug("project locked", "path", d.ws.LockPath())
	defer func() {
		if err := d.ws.Unlock(); err != nil {
			d.logger.Warn("unlock project", "error", err)
		}
	}()

	if d.journal != nil {
		if err := d.journal.Open(); err != nil {
			return err
		}
		defer func() {
			if err := d.journal.Close(); err != nil {
				d.logger.Warn("close journal", "error", err)
			}
		}()
	}

	// start watching before the sweep so nothing changed during it is missed
	if err := d.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	if d.sweep {
		if err := d.Sweep(); err != nil {
			d.watcher.Stop()
			return err
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	batches := make(chan emptydir.Batch, batchQueueSize)

	eg.Go(func() error {
		err := d.collector.Run(egCtx, d.watcher.Events(), batches)
		if err == nil && egCtx.Err() == nil {
			return watch.ErrWatcherClosed
		}
		return err
	})

	// single consumer, batches never overlap
	eg.Go(func() error {
		for batch := range batches {
			d.process(batch)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		d.logger.Info("stopping watch daemon")
		d.watcher.Stop()
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Error("watch daemon failure", "error", err)
		return err
	}

	d.logger.Info("watch daemon stopped")
	return nil
}

// Sweep reconciles every tracked directory of the project as one batch.
func (d *Daemon) Sweep() error {
	dirs, err := d.index.Dirs()
	if err != nil {
		return err
	}
	d.logger.Debug("sweep", "dirs", len(dirs))
	d.process(emptydir.Batch{Imported: dirs})
	return nil
}

func (d *Daemon) process(batch emptydir.Batch) {
	if batch.Empty() {
		return
	}
	res := d.reconciler.Process(batch)
	if d.onResult != nil {
		d.onResult(res)
	}
}

// dropEvent filters our own marker writes and paths the index never tracks.
func (d *Daemon) dropEvent(path string) bool {
	if filepath.Base(path) == emptydir.MarkerName {
		return true
	}
	rel, err := d.index.Rel(path)
	if err != nil || rel == "." {
		return true
	}
	return d.index.Ignored(rel)
}

var _ watch.Resolver = (*index.Local)(nil)
