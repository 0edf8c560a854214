package config

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/yubzen/maestro/internal/log"
)

// ErrWatcherNotReady is returned when the watcher is used before Watch.
var ErrWatcherNotReady = errors.New("config watcher is not initialized")

// Watcher reloads the config file when it changes on disk, so session
// policy (auto-approve, debug) can be flipped at runtime by editing the
// file. onReload runs on the watcher goroutine.
type Watcher struct {
	path     string
	onReload func(*Config)
	Done     chan struct{}
}

// NewWatcher builds a watcher for the config file at path.
func NewWatcher(path string, onReload func(*Config)) *Watcher {
	if path == "" {
		path = GetConfigPath()
	}
	return &Watcher{
		path:     path,
		onReload: onReload,
		Done:     make(chan struct{}),
	}
}

// Watch blocks until ctx is cancelled, reloading on every write or create
// of the config file. Editors often replace files, so the parent directory
// is watched rather than the file itself.
func (w *Watcher) Watch(ctx context.Context) error {
	if w == nil {
		return ErrWatcherNotReady
	}
	defer close(w.Done)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Warn("config reload failed: %v", err)
		return
	}
	log.Debug("config reloaded from %s", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
