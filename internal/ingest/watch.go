package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// Watcher reports import files that appear in an inbox directory. A file is
// reported once writes to it have been quiet for the debounce interval.
type Watcher struct {
	Dir string
	// Ready receives absolute paths of files with a known extension.
	Ready <-chan string

	ready    chan string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
}

func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	ch := make(chan string, 16)
	return &Watcher{
		Dir:      dir,
		Ready:    ch,
		ready:    ch,
		debounce: watchDebounce,
		watcher:  fw,
		logger:   logger,
	}, nil
}

// Run forwards settled files to Ready until ctx is done. It closes Ready on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.ready)
	defer w.watcher.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isImportFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				pending[event.Name] = time.Now()
			}

		case now := <-ticker.C:
			for file, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, file)
				select {
				case w.ready <- file:
				case <-ctx.Done():
					return nil
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "dir", w.Dir, "error", err)
		}
	}
}

func (w *Watcher) isImportFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := DetectSource(base)
	return ok
}
