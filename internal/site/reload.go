package site

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDelay batches editor save bursts into a single reload.
const ReloadDelay = 150 * time.Millisecond

// Reloader watches template and theme directories and calls onChange once
// per burst of file events.
type Reloader struct {
	watcher  *fsnotify.Watcher
	onChange func()
	logger   *slog.Logger
	delay    time.Duration

	timerMu sync.Mutex
	timer   *time.Timer

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewReloader watches every directory below dirs. Empty entries are
// skipped.
func NewReloader(onChange func(), logger *slog.Logger, dirs ...string) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	r := &Reloader{
		watcher:  watcher,
		onChange: onChange,
		logger:   logger,
		delay:    ReloadDelay,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := r.addTree(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	go r.loop()
	return r, nil
}

// fsnotify watches are not recursive, so every subdirectory is added.
func (r *Reloader) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return r.watcher.Add(path)
		}
		return nil
	})
}

// Close stops the watcher and waits for the event loop to exit.
func (r *Reloader) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		err = r.watcher.Close()
		<-r.stopped
		r.timerMu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		r.timerMu.Unlock()
	})
	return err
}

func (r *Reloader) loop() {
	defer close(r.stopped)
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handle(event)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("template watcher error", "error", err)
		}
	}
}

func (r *Reloader) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if event.Has(fsnotify.Create) {
		// New subdirectories need their own watch.
		if err := r.addTree(event.Name); err != nil {
			r.logger.Debug("watch new path", "path", event.Name, "error", err)
		}
	}
	r.logger.Debug("template change", "path", event.Name, "op", event.Op.String())
	r.schedule()
}

func (r *Reloader) schedule() {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, func() {
		select {
		case <-r.done:
			return
		default:
		}
		if r.onChange != nil {
			r.onChange()
		}
	})
}
