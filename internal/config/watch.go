package config

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes and delivers the result
// on a channel. A reload that fails to load or validate is logged and
// dropped; the previous configuration stays in effect.
type Watcher struct {
	fsw     *fsnotify.Watcher
	path    string
	changes chan Config
	done    chan struct{}
}

// NewWatcher watches the config file at path. The parent directory is
// watched rather than the file itself so editors and config management
// tools that replace the file atomically are still seen.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:     fsw,
		path:    path,
		changes: make(chan Config, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes delivers each successfully reloaded configuration. Only the
// latest pending config is kept; stale intermediate reloads are dropped.
func (w *Watcher) Changes() <-chan Config {
	return w.changes
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				log.Printf("config reload: %v", err)
				continue
			}
			w.send(cfg)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) send(cfg Config) {
	for {
		select {
		case w.changes <- cfg:
			return
		default:
			// Drop the stale pending config and retry with the newer one.
			select {
			case <-w.changes:
			default:
			}
		}
	}
}

// Close stops watching. The Changes channel stops delivering but is not closed.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
