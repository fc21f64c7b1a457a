package project

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce collapses the burst of events editors produce on save.
const defaultDebounce = 200 * time.Millisecond

// Watcher reloads the project file into a Holder when it changes on disk.
// a file that fails to parse is logged and the previous project is kept.
type Watcher struct {
	path     string
	holder   *Holder
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for path. the parent directory is watched,
// so atomic rename-on-save is picked up as well.
func NewWatcher(path string, holder *Holder) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, holder: holder, debounce: defaultDebounce, watcher: fw}, nil
}

// Start processes file events until ctx is canceled. blocks.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] project watcher: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	p, err := Load(w.path)
	if err != nil {
		log.Printf("[WARN] project reload failed, keeping previous version: %v", err)
		return
	}
	log.Printf("[INFO] project reloaded from %s: %d fields, %d traces", w.path, len(p.Schema), len(p.Traces))
	w.holder.Set(p)
}
