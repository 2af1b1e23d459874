package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// statsReloadDelay lets editors finish writing before the document is reread
const statsReloadDelay = 500 * time.Millisecond

// startFileWatcher watches the image directory recursively and, for a local
// statistics file, the directory holding it.
func (es *ExplorerServer) startFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	es.watcher = watcher

	if err := es.addDirectoryToWatcher(es.config.Assets.ImageDir); err != nil {
		watcher.Close()
		return err
	}

	store := es.explorer.Store()
	if !store.IsRemote() {
		statsDir := filepath.Dir(store.Source())
		if err := watcher.Add(statsDir); err != nil {
			es.logger.WithError(err).WithField("directory", statsDir).Warn("Not watching statistics file")
		}
	}

	go es.watchFiles(watcher)

	es.logger.WithFields(logrus.Fields{
		"image_dir": es.config.Assets.ImageDir,
		"stats":     store.Source(),
	}).Info("File watcher started")
	return nil
}

// addDirectoryToWatcher recursively walks and adds subdirectories to watcher.
func (es *ExplorerServer) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return es.watcher.Add(path)
		}
		return nil
	})
}

// watchFiles selects on watcher channels and dispatches events.
func (es *ExplorerServer) watchFiles(watcher *fsnotify.Watcher) {
	reload := newDebouncer(statsReloadDelay, es.reloadStatistics)
	defer reload.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			es.handleFileEvent(event, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			es.logger.WithError(err).Error("File watcher error")
		}
	}
}

// handleFileEvent invalidates cached images and schedules statistics reloads.
func (es *ExplorerServer) handleFileEvent(event fsnotify.Event, reload *debouncer) {
	// Ignore temporary files and hidden files
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	store := es.explorer.Store()
	if !store.IsRemote() && sameFile(event.Name, store.Source()) {
		if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
			reload.Trigger()
		}
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := es.addDirectoryToWatcher(event.Name); err != nil {
				es.logger.WithError(err).WithField("directory", event.Name).Warn("Could not watch new directory")
				return
			}
			es.logger.WithField("directory", event.Name).Info("Watching new directory")
			return
		}
		es.explorer.Sampler().Invalidate(event.Name)

	case event.Has(fsnotify.Write), event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		es.explorer.Sampler().Invalidate(event.Name)
		es.logger.WithField("file_path", event.Name).Debug("Image changed")
	}
}

// reloadStatistics rereads the statistics document, keeping the old one on failure.
func (es *ExplorerServer) reloadStatistics() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := es.explorer.ReloadStats(ctx); err != nil {
		es.logger.WithError(err).Warn("Statistics reload failed, keeping previous document")
		return
	}
	es.logger.WithField("source", es.explorer.Store().Source()).Info("Statistics reloaded")
}

// stopFileWatcher closes the watcher (idempotent).
func (es *ExplorerServer) stopFileWatcher() {
	if es.watcher != nil {
		es.watcher.Close()
	}
}

// sameFile compares two paths after cleaning them
func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// debouncer runs fn once after a quiet period following the last Trigger
type debouncer struct {
	delay time.Duration
	fn    func()

	mutex sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
