// library_watcher.go - Hot reload of library definitions

package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LibraryWatcher reloads a library directory when its definition or samples
// change on disk, then swaps the engine's snapshot. Runs entirely off the
// audio thread; the swap happens through SetLibrary which kills voices at a
// block boundary.
type LibraryWatcher struct {
	engine  *SamplerEngine
	dir     string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

const reloadDebounce = 250 * time.Millisecond

func NewLibraryWatcher(engine *SamplerEngine, dir string) (*LibraryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	lw := &LibraryWatcher{
		engine:  engine,
		dir:     dir,
		watcher: w,
		done:    make(chan struct{}),
	}
	go lw.run()
	return lw, nil
}

func (lw *LibraryWatcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case ev, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			switch filepath.Ext(ev.Name) {
			case ".json", ".lua", ".wav":
			default:
				continue
			}
			// Editors write in bursts; reload once the burst settles.
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			lib, err := LoadLibrary(lw.dir)
			if err != nil {
				diagf("reload of %s failed: %v", lw.dir, err)
				continue
			}
			lw.engine.SetLibrary(lib)
			diagf("reloaded library %q from %s", lib.Name, lw.dir)
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			diagf("library watcher: %v", err)
		case <-lw.done:
			return
		}
	}
}

func (lw *LibraryWatcher) Close() error {
	close(lw.done)
	return lw.watcher.Close()
}
