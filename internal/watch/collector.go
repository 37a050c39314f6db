package watch

import (
	"context"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/dirkeep/internal/emptydir"
	"github.com/rjeczalik/notify"
)

// Resolver maps watcher paths into the project.
type Resolver interface {
	Rel(abs string) (string, error)
	Exists(path string) bool
}

// pathList keeps first-seen order and drops duplicates.
type pathList struct {
	order []string
	seen  mapset.Set[string]
}

func newPathList() *pathList {
	return &pathList{seen: mapset.NewThreadUnsafeSet[string]()}
}

func (l *pathList) add(path string) {
	if l.seen.Add(path) {
		l.order = append(l.order, path)
	}
}

// Collector turns watcher events into reconcile batches.
// Create and write become imported, remove becomes deleted, and rename
// becomes moved or moved-from depending on whether the path still exists.
type Collector struct {
	resolver  Resolver
	window    time.Duration
	imported  *pathList
	deleted   *pathList
	moved     *pathList
	movedFrom *pathList
}

func NewCollector(resolver Resolver, window time.Duration) *Collector {
	c := &Collector{resolver: resolver, window: window}
	c.reset()
	return c
}

func (c *Collector) reset() {
	c.imported = newPathList()
	c.deleted = newPathList()
	c.moved = newPathList()
	c.movedFrom = newPathList()
}

// Add classifies one event. It reports false for events outside the project.
func (c *Collector) Add(event notify.EventInfo) bool {
	path, err := c.resolver.Rel(event.Path())
	if err != nil || path == "." {
		slog.Debug("collector skip", "path", event.Path(), "error", err)
		return false
	}

	switch ev := event.Event(); {
	case ev&notify.Rename != 0:
		if c.resolver.Exists(path) {
			c.moved.add(path)
		} else {
			c.movedFrom.add(path)
		}
	case ev&notify.Remove != 0:
		c.deleted.add(path)
	case ev&(notify.Create|notify.Write) != 0:
		c.imported.add(path)
	default:
		return false
	}
	return true
}

// Pending returns the number of paths waiting for the next flush.
func (c *Collector) Pending() int {
	return len(c.imported.order) + len(c.deleted.order) + len(c.moved.order) + len(c.movedFrom.order)
}

// Flush returns the collected batch and starts a new one.
func (c *Collector) Flush() emptydir.Batch {
	batch := emptydir.Batch{
		Imported:  c.imported.order,
		Deleted:   c.deleted.order,
		Moved:     c.moved.order,
		MovedFrom: c.movedFrom.order,
	}
	c.reset()
	return batch
}

// Run collects events until the stream ends or ctx is done, sending a
// batch after each quiet period of the collector window. Whatever is still
// pending when events closes is sent before out is closed. On cancellation
// the pending batch is handed over only if out has room.
func (c *Collector) Run(ctx context.Context, events <-chan notify.EventInfo, out chan<- emptydir.Batch) error {
	defer close(out)

	timer := time.NewTimer(c.window)
	timer.Stop()

	send := func() bool {
		if c.Pending() == 0 {
			return true
		}
		select {
		case out <- c.Flush():
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			if c.Pending() > 0 {
				select {
				case out <- c.Flush():
				default:
				}
			}
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				send()
				return nil
			}
			if c.Add(event) {
				timer.Reset(c.window)
			}
		case <-timer.C:
			if !send() {
				return ctx.Err()
			}
		}
	}
}
