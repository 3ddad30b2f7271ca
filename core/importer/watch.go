package importer

import (
	"context"
	"time"

	"ShelfFM/core/meta"
	"ShelfFM/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher imports audio files dropped into a watched directory. Events are
// funneled into the same sequential importer as manual imports.
type Watcher struct {
	importer *Importer
	dir      string
	watcher  *fsnotify.Watcher
	done     chan struct{}

	// onImport fires after each successful import so callers can refresh
	// anything derived from the track list. May be nil.
	onImport func()
}

// NewWatcher creates a watcher for dir. onImport, when non-nil, runs after
// every successful import.
func NewWatcher(im *Importer, dir string, onImport func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		importer: im,
		dir:      dir,
		watcher:  fsw,
		done:     make(chan struct{}),
		onImport: onImport,
	}, nil
}

// Start runs the event loop until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
	logger.Info("watch folder active", logger.String("dir", w.dir))
}

func (w *Watcher) loop(ctx context.Context) {
	// A file being written emits a burst of events; import once the burst
	// settles.
	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !meta.SupportedExt(event.Name) {
				continue
			}

			path := event.Name
			if timer, ok := pending[path]; ok {
				timer.Reset(2 * time.Second)
				continue
			}
			pending[path] = time.AfterFunc(2*time.Second, func() {
				if _, err := w.importer.ImportPath(ctx, path, false); err != nil {
					logger.Warn("watch import failed", logger.String("path", path), logger.ErrorField(err))
					return
				}
				if w.onImport != nil {
					w.onImport()
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", logger.ErrorField(err))
		}
	}
}

// Stop ends the event loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}
