package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file whenever it changes on disk, calling
// onReload with the freshly-parsed Config. Editors that replace the file
// (rather than writing in place) emit Remove+Create instead of Write, so
// both are treated as a reload trigger.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

// WatchFile starts watching path and invokes onReload on every change that
// parses successfully; parse errors are logged and the previous Config
// stays in effect. Call Close to stop watching.
func WatchFile(path string, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fsw, path: path, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				if event.Op&fsnotify.Remove != 0 {
					// editors that swap files out briefly unwatch the old inode
					_ = fsw.Add(path)
				}
				cfg, err := Load(path)
				if err != nil {
					slog.Warn("config.reload_failed", "path", path, "error", err)
					continue
				}
				slog.Info("config.reloaded", "path", path)
				onReload(cfg)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("config.watch_error", "path", path, "error", err)
			}
		}
	}()

	return w, nil
}

// Close stops the watch loop.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
