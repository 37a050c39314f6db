package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

const (
	eventBufferSize        = 256
	defaultDebounceTimeout = 50 * time.Millisecond
)

var ErrWatcherClosed = errors.New("watcher closed")

// watchedEvents are the changes that can add or remove directory content.
var watchedEvents = []notify.Event{notify.Create, notify.Remove, notify.Rename, notify.Write}

// FilterCallback returns true if the event for path should be dropped.
type FilterCallback func(path string) bool

// FileWatcher watches a directory tree and emits debounced events, one per
// path per burst. On Linux a single write fires many events until the file
// is complete, so every event is delayed by the debounce timeout.
type FileWatcher struct {
	watchDir  string
	events    chan notify.EventInfo
	rawEvents chan notify.EventInfo
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	pendingEvents   map[string]notify.EventInfo
	eventTimers     map[string]*time.Timer
	debounceMu      sync.Mutex
	debounceTimeout time.Duration

	filter   FilterCallback
	filterMu sync.RWMutex
}

func NewFileWatcher(watchDir string) *FileWatcher {
	return &FileWatcher{
		watchDir:        watchDir,
		done:            make(chan struct{}),
		pendingEvents:   make(map[string]notify.EventInfo),
		eventTimers:     make(map[string]*time.Timer),
		debounceTimeout: defaultDebounceTimeout,
	}
}

// FilterPaths installs a callback consulted for every raw event before debouncing.
func (fw *FileWatcher) FilterPaths(callback FilterCallback) {
	fw.filterMu.Lock()
	defer fw.filterMu.Unlock()
	fw.filter = callback
}

func (fw *FileWatcher) Start(ctx context.Context) error {
	slog.Info("file watcher start", "dir", fw.watchDir)

	fw.rawEvents = make(chan notify.EventInfo, eventBufferSize)
	fw.events = make(chan notify.EventInfo, eventBufferSize)

	if err := notify.Watch(fw.watchDir+"/...", fw.rawEvents, watchedEvents...); err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.filterEvents(ctx)

	return nil
}

// Stop ends watching and waits for the event loop. Pending debounced events
// are flushed before Events is closed.
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		slog.Info("file watcher stopping")
		close(fw.done)
		if fw.rawEvents != nil {
			notify.Stop(fw.rawEvents)
		}
		fw.wg.Wait()
		slog.Info("file watcher stopped")
	})
}

// Events is closed once the watcher stops.
func (fw *FileWatcher) Events() <-chan notify.EventInfo {
	return fw.events
}

func (fw *FileWatcher) filtered(path string) bool {
	fw.filterMu.RLock()
	defer fw.filterMu.RUnlock()
	return fw.filter != nil && fw.filter(path)
}

func (fw *FileWatcher) filterEvents(ctx context.Context) {
	defer func() {
		fw.debounceMu.Lock()
		for path, timer := range fw.eventTimers {
			timer.Stop()
			if event, ok := fw.pendingEvents[path]; ok {
				select {
				case fw.events <- event:
				default:
					slog.Warn("file watcher dropped", "reason", "channel full on exit", "path", path)
				}
			}
		}
		fw.pendingEvents = make(map[string]notify.EventInfo)
		fw.eventTimers = make(map[string]*time.Timer)
		fw.debounceMu.Unlock()

		fw.wg.Done()
		close(fw.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.done:
			return
		case event, ok := <-fw.rawEvents:
			if !ok {
				return
			}
			if fw.filtered(event.Path()) {
				continue
			}
			fw.debounceEvent(event)
		}
	}
}

func (fw *FileWatcher) debounceEvent(event notify.EventInfo) {
	path := event.Path()

	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, ok := fw.eventTimers[path]; ok {
		timer.Stop()
	}
	fw.pendingEvents[path] = event
	fw.eventTimers[path] = time.AfterFunc(fw.debounceTimeout, func() {
		fw.flushEvent(path)
	})
}

func (fw *FileWatcher) flushEvent(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	event, ok := fw.pendingEvents[path]
	if !ok {
		return
	}
	delete(fw.pendingEvents, path)
	delete(fw.eventTimers, path)

	// holding the lock keeps the exit flush from closing events under us
	select {
	case fw.events <- event:
		slog.Debug("file watcher", "event", event.Event(), "path", path)
	default:
		slog.Warn("file watcher dropped", "reason", "channel full", "path", path)
	}
}
