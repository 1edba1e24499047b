// Package watcher implements the File Watcher / Orchestrator component
//: it keeps the Dynamic and Background tiers coherent with
// the editor and the filesystem across three input streams — editor
// buffer changes, editor saves, and raw filesystem events — each
// debounced, with a newer event for a URI always superseding a pending
// older one.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/smartindex/smartindex/pkg/background"
	"github.com/smartindex/smartindex/pkg/dynamic"
)

// Default debounce window.
const DefaultDebounce = 600 * time.Millisecond

// Orchestrator owns the debounce timers for all three input streams and
// forwards settled events to the Dynamic and Background tiers.
type Orchestrator struct {
	dynamicTier    *dynamic.Index
	backgroundTier *background.Index
	exclude        background.ExcludeFunc
	debounce       time.Duration
	logger         *slog.Logger

	bufferMu     sync.Mutex
	bufferTimers map[string]*time.Timer

	fsMu      sync.Mutex
	fsTimers  map[string]*time.Timer
	fsWatcher *fsnotify.Watcher

	stopCh  chan struct{}
	stopped bool
	stopMu  sync.Mutex
}

// New constructs an Orchestrator. backgroundTier may be nil when
// enableBackgroundIndex is false — filesystem and save events
// then become no-ops for that tier.
func New(dynamicTier *dynamic.Index, backgroundTier *background.Index, exclude background.ExcludeFunc, debounce time.Duration, logger *slog.Logger) *Orchestrator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	if exclude == nil {
		exclude = func(string) bool { return false }
	}
	return &Orchestrator{
		dynamicTier:    dynamicTier,
		backgroundTier: backgroundTier,
		exclude:        exclude,
		debounce:       debounce,
		logger:         logger,
		bufferTimers:   make(map[string]*time.Timer),
		fsTimers:       make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}
}

// OnBufferChanged handles the editor's buffer-change stream: debounced
// per-URI, updating only the Dynamic Index on fire. Buffer changes never
// trigger a Background reindex — the buffer is not yet on disk.
//
// Exclusion is applied at the earliest stage: an excluded URI never
// starts a timer, stats, or read.
func (o *Orchestrator) OnBufferChanged(uri string, text []byte) {
	if o.exclude(uri) {
		return
	}

	o.bufferMu.Lock()
	defer o.bufferMu.Unlock()

	if t, exists := o.bufferTimers[uri]; exists {
		t.Stop()
	}
	o.bufferTimers[uri] = time.AfterFunc(o.debounce, func() {
		if err := o.dynamicTier.Update(uri, text); err != nil {
			o.logger.Warn("dynamic update failed", "uri", uri, "error", err)
		}
		o.bufferMu.Lock()
		delete(o.bufferTimers, uri)
		o.bufferMu.Unlock()
	})
}

// OnBufferSaved handles the editor's save stream: an immediate Dynamic
// update plus an immediate (non-debounced) Background updateFile. Any
// pending debounced buffer-change timer for uri is cancelled since the
// save supersedes it.
func (o *Orchestrator) OnBufferSaved(uri string, text []byte) {
	if o.exclude(uri) {
		return
	}

	o.bufferMu.Lock()
	if t, exists := o.bufferTimers[uri]; exists {
		t.Stop()
		delete(o.bufferTimers, uri)
	}
	o.bufferMu.Unlock()

	if err := o.dynamicTier.Update(uri, text); err != nil {
		o.logger.Warn("dynamic update on save failed", "uri", uri, "error", err)
	}
	if o.backgroundTier != nil {
		if err := o.backgroundTier.UpdateFile(uri); err != nil && !errors.Is(err, background.ErrOutOfBudget) {
			o.logger.Warn("background update on save failed", "uri", uri, "error", err)
		}
	}
}

// OnBufferClosed handles the editor closing a buffer: removes the
// Dynamic Index entry and cancels any pending debounce timer. The
// background shard, if any, continues to serve queries.
func (o *Orchestrator) OnBufferClosed(uri string) {
	o.bufferMu.Lock()
	if t, exists := o.bufferTimers[uri]; exists {
		t.Stop()
		delete(o.bufferTimers, uri)
	}
	o.bufferMu.Unlock()

	o.dynamicTier.Close(uri)
}

// WatchFilesystem starts the filesystem-event stream: debounced
// Background updateFile/removeFile driven by raw fsnotify events for
// files outside the editor's open set (or any externally modified
// file).
func (o *Orchestrator) WatchFilesystem(root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	o.fsWatcher = w

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if o.exclude(path) {
			return filepath.SkipDir
		}
		if addErr := w.Add(path); addErr != nil {
			o.logger.Warn("failed to watch directory", "path", path, "error", addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %q to set up watches: %w", root, err)
	}

	go o.fsEventLoop()
	return nil
}

func (o *Orchestrator) fsEventLoop() {
	for {
		select {
		case <-o.stopCh:
			return
		case event, ok := <-o.fsWatcher.Events:
			if !ok {
				return
			}
			o.handleFSEvent(event)
		case err, ok := <-o.fsWatcher.Errors:
			if !ok {
				return
			}
			o.logger.Error("filesystem watcher error", "error", err)
		}
	}
}

// handleFSEvent applies exclusion at the earliest stage, then debounces
// a Background reindex (write/create) or an immediate removal
// (remove/rename).
func (o *Orchestrator) handleFSEvent(event fsnotify.Event) {
	uri := event.Name
	if o.exclude(uri) {
		return
	}

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		o.debounceBackgroundUpdate(uri)
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		o.cancelPendingFSTimer(uri)
		if o.backgroundTier != nil {
			if err := o.backgroundTier.RemoveFile(uri); err != nil {
				o.logger.Warn("background remove failed", "uri", uri, "error", err)
			}
		}
	}
}

// debounceBackgroundUpdate resets uri's pending timer on every new event,
// so a burst of writes collapses into a single reindex once things settle
//.
func (o *Orchestrator) debounceBackgroundUpdate(uri string) {
	o.fsMu.Lock()
	defer o.fsMu.Unlock()

	if t, exists := o.fsTimers[uri]; exists {
		t.Stop()
	}
	o.fsTimers[uri] = time.AfterFunc(o.debounce, func() {
		if o.backgroundTier != nil {
			if err := o.backgroundTier.UpdateFile(uri); err != nil && !errors.Is(err, background.ErrOutOfBudget) {
				o.logger.Warn("background update from fs event failed", "uri", uri, "error", err)
			}
		}
		o.fsMu.Lock()
		delete(o.fsTimers, uri)
		o.fsMu.Unlock()
	})
}

func (o *Orchestrator) cancelPendingFSTimer(uri string) {
	o.fsMu.Lock()
	defer o.fsMu.Unlock()
	if t, exists := o.fsTimers[uri]; exists {
		t.Stop()
		delete(o.fsTimers, uri)
	}
}

// Stop cancels every pending timer and closes the filesystem watcher.
// Idempotent.
func (o *Orchestrator) Stop() error {
	o.stopMu.Lock()
	defer o.stopMu.Unlock()
	if o.stopped {
		return nil
	}
	o.stopped = true
	close(o.stopCh)

	o.bufferMu.Lock()
	for _, t := range o.bufferTimers {
		t.Stop()
	}
	o.bufferTimers = make(map[string]*time.Timer)
	o.bufferMu.Unlock()

	o.fsMu.Lock()
	for _, t := range o.fsTimers {
		t.Stop()
	}
	o.fsTimers = make(map[string]*time.Timer)
	o.fsMu.Unlock()

	if o.fsWatcher != nil {
		return o.fsWatcher.Close()
	}
	return nil
}

// PendingCounts reports the number of in-flight debounce timers per
// stream, consumed by the Stats Manager.
func (o *Orchestrator) PendingCounts() (bufferPending, fsPending int) {
	o.bufferMu.Lock()
	bufferPending = len(o.bufferTimers)
	o.bufferMu.Unlock()

	o.fsMu.Lock()
	fsPending = len(o.fsTimers)
	o.fsMu.Unlock()
	return
}
