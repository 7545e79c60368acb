package template

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Change reports that a template file was created, written, removed or renamed.
// The Store is never reloaded; callers decide how to surface the change.
type Change struct {
	Path string
	Op   string
}

// Watch reports template file changes in dir until ctx is done.
// The returned channel is closed when watching stops.
func Watch(ctx context.Context, dir string, logger *zap.Logger) (<-chan Change, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, &LoadError{Op: "watch", Path: dir, Err: err}
	}

	changes := make(chan Change, 1)
	go func() {
		defer close(changes)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Chmod) || !supported(filepath.Base(ev.Name)) {
					continue
				}
				c := Change{Path: ev.Name, Op: ev.Op.String()}
				logger.Debug("template changed on disk", zap.String("path", c.Path), zap.String("op", c.Op))
				select {
				case changes <- c:
				default:
					// a pending notification already covers this one
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("template watcher error", zap.Error(err))
			}
		}
	}()

	return changes, nil
}
