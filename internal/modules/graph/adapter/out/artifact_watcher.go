package out

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	hclog "github.com/hashicorp/go-hclog"

	graphout "flavorlab/internal/modules/graph/port/out"
)

const DefaultDebounce = 300 * time.Millisecond

// FileWatcher reports changes to a single artifact file. It watches the
// parent directory so that write-to-temp-then-rename replacements are seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   hclog.Logger
}

func NewFileWatcher(path string, debounce time.Duration, logger hclog.Logger) graphout.ChangeNotifier {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FileWatcher{path: filepath.Clean(path), debounce: debounce, logger: logger}
}

// Watch blocks until ctx is done. Bursts of events within the debounce
// window collapse into one onChange call, made on the Watch goroutine.
func (w *FileWatcher) Watch(ctx context.Context, onChange func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching artifact", "path", w.path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("artifact changed", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			onChange()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
