// Package watch nudges the dashboard's update check when a local
// repository's .git directory changes, so edits show up ahead of the next
// poll tick.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceTime coalesces the burst of filesystem events one git operation
// produces into a single nudge.
const debounceTime = 100 * time.Millisecond

// Watcher monitors a .git directory and invokes the nudge callback after
// each debounced burst of relevant changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	nudge   func()
	done    chan struct{}
}

// New starts watching gitDir. The nudge callback runs on the watcher's
// goroutine; keep it cheap (the session's PollNow qualifies).
func New(gitDir string, nudge func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	for _, sub := range []string{gitDir, filepath.Join(gitDir, "refs", "heads")} {
		if addErr := fsWatcher.Add(sub); addErr != nil {
			// refs/heads may not exist in packed-refs repositories; the
			// top-level watch still sees HEAD moves.
			slog.Warn("watch path unavailable", "path", sub, "error", addErr)
		}
	}

	w := &Watcher{
		watcher: fsWatcher,
		nudge:   nudge,
		done:    make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done

	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	var debounce *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if shouldIgnore(event) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}

			debounce = time.AfterFunc(debounceTime, w.nudge)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			slog.Warn("watcher error", "error", err)
		}
	}
}

// shouldIgnore filters the event noise git produces: lock files, reflogs,
// and anything that is not a write or create.
func shouldIgnore(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return true
	}

	base := filepath.Base(event.Name)
	if strings.HasSuffix(base, ".lock") {
		return true
	}

	return strings.Contains(event.Name, string(filepath.Separator)+"logs"+string(filepath.Separator))
}
