package watch

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the write bursts editors produce when saving.
const debounce = 500 * time.Millisecond

// Config watches a config file and invokes onChange after writes
// settle. The parent directory is watched rather than the file itself
// so atomic rename-over saves keep working.
type Config struct {
	path     string
	onChange func()
}

func NewConfig(path string, onChange func()) *Config {
	return &Config{path: path, onChange: onChange}
}

// Run blocks until ctx is cancelled. Watcher setup failure disables
// hot reload but is not fatal; SIGHUP reload still works.
func (w *Config) Run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[watch] disabled: %v", err)
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		log.Printf("[watch] cannot watch %s: %v", dir, err)
		return
	}
	target := filepath.Clean(w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				log.Printf("[watch] %s changed, reloading", w.path)
				w.onChange()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watch] error: %v", err)
		}
	}
}
