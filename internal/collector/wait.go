package collector

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// waitPollInterval is the fallback polling interval while waiting for
// a socket to appear.
const waitPollInterval = 250 * time.Millisecond

// WaitForSocket blocks until a unix socket exists at path or ctx ends.
// It watches the parent directory with fsnotify and falls back to
// polling when the watcher cannot be set up.
func WaitForSocket(ctx context.Context, path string) error {
	if socketReady(path) {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return waitPoll(ctx, path)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return waitPoll(ctx, path)
	}
	// The socket may have appeared between the stat and the watch.
	if socketReady(path) {
		return nil
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return waitPoll(ctx, path)
			}
			if ev.Has(fsnotify.Create) && ev.Name == path && socketReady(path) {
				return nil
			}
		case _, ok := <-w.Errors:
			if !ok {
				return waitPoll(ctx, path)
			}
		case <-ticker.C:
			if socketReady(path) {
				return nil
			}
		}
	}
}

func waitPoll(ctx context.Context, path string) error {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if socketReady(path) {
				return nil
			}
		}
	}
}

func socketReady(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode()&os.ModeSocket != 0
}
