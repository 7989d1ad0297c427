package artifact

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// DefaultDebounce collapses the burst of events a multi-file copy produces.
const DefaultDebounce = 2 * time.Second

// Watcher calls OnChange once per quiet period after any watched artifact in
// Dir is created, written, renamed or removed.
type Watcher struct {
	Dir      string
	Names    []string
	Debounce time.Duration
	OnChange func(ctx context.Context)
	Logger   logging.Logger
}

func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(name)
	if len(w.Names) == 0 {
		return !strings.HasPrefix(base, ".")
	}
	for _, n := range w.Names {
		if base == n || base == n+CompressedSuffix {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if w.OnChange == nil {
		return errors.New(errors.ErrCodeValidation, "watcher has no change handler")
	}
	log := w.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "create watcher")
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageError, "watch %s", w.Dir)
	}
	log.Info("watching artifacts", logging.String("dir", w.Dir), logging.Duration("debounce", debounce))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 || !w.relevant(ev.Name) {
				continue
			}
			log.Debug("artifact changed", logging.String("path", ev.Name), logging.String("op", ev.Op.String()))
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			pending = true
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("artifact watcher error", logging.Err(err))
		case <-timer.C:
			pending = false
			w.OnChange(ctx)
		}
	}
}

//Personal.AI order the ending
