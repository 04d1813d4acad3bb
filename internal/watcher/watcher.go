// Package watcher provides a debounced filesystem watcher used by the CLI's
// watch mode to re-render components when their assets change.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// AssetWatcher watches asset directories and delivers debounced change
// batches to registered handlers.
type AssetWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	mutex     sync.RWMutex
	stopOnce  sync.Once
}

// ChangeEvent represents a single asset change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// EventType represents the type of asset change.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType.
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a changed file is of interest.
type FileFilter func(path string) bool

// ChangeHandler handles a debounced batch of asset changes.
type ChangeHandler func(events []ChangeEvent) error

// ExtensionFilter builds a filter accepting only the given extensions. An
// empty list accepts everything.
func ExtensionFilter(extensions []string) FileFilter {
	if len(extensions) == 0 {
		return func(string) bool { return true }
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	return func(path string) bool {
		return allowed[strings.ToLower(filepath.Ext(path))]
	}
}

// NewAssetWatcher creates an asset watcher with the given debounce delay.
func NewAssetWatcher(debounceDelay time.Duration) (*AssetWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetWatcher{
		watcher: fsw,
		debouncer: &debouncer{
			delay:   debounceDelay,
			events:  make(chan ChangeEvent, 100),
			output:  make(chan []ChangeEvent, 10),
			pending: make([]ChangeEvent, 0),
		},
	}, nil
}

// AddFilter adds a file filter. All filters must accept a path for it to be
// delivered.
func (aw *AssetWatcher) AddFilter(filter FileFilter) {
	aw.mutex.Lock()
	defer aw.mutex.Unlock()
	aw.filters = append(aw.filters, filter)
}

// AddHandler adds a change handler.
func (aw *AssetWatcher) AddHandler(handler ChangeHandler) {
	aw.mutex.Lock()
	defer aw.mutex.Unlock()
	aw.handlers = append(aw.handlers, handler)
}

// AddRecursive watches a directory tree.
func (aw *AssetWatcher) AddRecursive(root string) error {
	clean := filepath.Clean(root)
	return filepath.Walk(clean, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return aw.watcher.Add(path)
		}
		return nil
	})
}

// Start runs the watch and dispatch loops until ctx is cancelled.
func (aw *AssetWatcher) Start(ctx context.Context) {
	go aw.debouncer.run(ctx)
	go aw.watchLoop(ctx)
	go aw.dispatchLoop(ctx)
}

// Stop closes the underlying filesystem watcher.
func (aw *AssetWatcher) Stop() error {
	var err error
	aw.stopOnce.Do(func() {
		err = aw.watcher.Close()
	})
	return err
}

func (aw *AssetWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			aw.handleEvent(event)
		case _, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (aw *AssetWatcher) handleEvent(event fsnotify.Event) {
	aw.mutex.RLock()
	filters := aw.filters
	aw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	change := ChangeEvent{Path: event.Name, ModTime: time.Now()}
	switch {
	case event.Op&fsnotify.Create != 0:
		change.Type = EventTypeCreated
		// New directories must be added to the watch set.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = aw.watcher.Add(event.Name)
			return
		}
	case event.Op&fsnotify.Write != 0:
		change.Type = EventTypeModified
	case event.Op&fsnotify.Remove != 0:
		change.Type = EventTypeDeleted
	case event.Op&fsnotify.Rename != 0:
		change.Type = EventTypeRenamed
	default:
		return
	}

	select {
	case aw.debouncer.events <- change:
	default:
		// Drop when the buffer is full; the next event re-triggers.
	}
}

func (aw *AssetWatcher) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-aw.debouncer.output:
			if !ok {
				return
			}
			aw.mutex.RLock()
			handlers := aw.handlers
			aw.mutex.RUnlock()
			for _, handler := range handlers {
				if err := handler(batch); err != nil {
					fmt.Fprintf(os.Stderr, "watch handler: %v\n", err)
				}
			}
		}
	}
}

// debouncer groups rapid changes into one batch per quiet period.
type debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	pending []ChangeEvent
	mutex   sync.Mutex
}

func (d *debouncer) run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.mutex.Lock()
			d.pending = append(d.pending, event)
			d.mutex.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(d.delay)
			fire = timer.C
		case <-fire:
			d.mutex.Lock()
			batch := d.pending
			d.pending = make([]ChangeEvent, 0)
			d.mutex.Unlock()
			fire = nil
			if len(batch) > 0 {
				select {
				case d.output <- batch:
				default:
				}
			}
		}
	}
}
