// Package watch reports changes to a scene file and the files next to it.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
)

// DefaultDelay is how long the directory must stay quiet before a change is
// reported. Editors and exporters usually write several events per save.
const DefaultDelay = 250 * time.Millisecond

// Watcher watches the directory holding a scene file. Any write, create,
// rename or remove in that directory counts as a change, so edited textures
// trigger a reload too.
type Watcher struct {
	fs      *fsnotify.Watcher
	dir     string
	delay   time.Duration
	changed chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New starts watching the directory of path.
func New(path string, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		fs:      fsw,
		dir:     dir,
		delay:   delay,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()

	logger.Info("watching for changes", zap.String("dir", dir))
	return w, nil
}

// Changed reports whether anything changed since the last call. It never
// blocks.
func (w *Watcher) Changed() bool {
	select {
	case <-w.changed:
		return true
	default:
		return false
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("file changed", zap.String("name", e.Name), zap.Stringer("op", e.Op))
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", zap.String("dir", w.dir), zap.Error(err))

		case <-fire:
			fire = nil
			select {
			case w.changed <- struct{}{}:
			default:
			}

		case <-w.done:
			return
		}
	}
}
