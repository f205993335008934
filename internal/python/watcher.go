package python

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/xrview/xrv/internal/diag"
)

// Invalidator is notified when the Python environment may have changed
// on disk.
type Invalidator interface {
	Invalidate()
}

// Watcher invalidates the interpreter cache when watched paths change:
// the config file, the resolved binary, a venv directory. Re-resolution
// happens lazily on the next use, not here.
type Watcher struct {
	w      *fsnotify.Watcher
	target Invalidator
}

// NewWatcher watches the given paths. Paths that do not exist (yet) are
// skipped; a venv created later is picked up by watching its parent.
func NewWatcher(target Invalidator, paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create environment watcher: %w", err)
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := fw.Add(p); err != nil {
			diag.L().Debug("not watching path", "path", p, "err", err)
		}
	}

	w := &Watcher{w: fw, target: target}
	go w.loop()
	return w, nil
}

// loop drains events until Close. Any mutation of a watched path
// invalidates the cache.
func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) != 0 {
				diag.L().Debug("environment changed", "path", ev.Name, "op", ev.Op.String())
				w.target.Invalidate()
			}

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			diag.L().Warn("environment watcher error", "err", err)
		}
	}
}

// Close stops watching and ends the event loop.
func (w *Watcher) Close() error {
	return w.w.Close()
}
