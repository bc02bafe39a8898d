package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a file change notification.
type EventType int

const (
	// EventChanged indicates the watched file was written or replaced.
	EventChanged EventType = iota

	// EventRemoved indicates the watched file is gone. A later EventChanged
	// follows if it is recreated.
	EventRemoved

	// EventError signals the watcher hit an error and callers should reload
	// to resynchronize.
	EventError
)

// Event is emitted by WatchFile when the watched file changes.
type Event struct {
	Type EventType
	Path string
}

// WatchFile streams change events for path until ctx is cancelled. The parent
// directory is watched so editors that replace the file by rename are seen.
// Bursts of writes are coalesced. The channel is closed once ctx is done or
// the watcher fails.
func WatchFile(ctx context.Context, path string) (<-chan Event, error) {
	if path == "" {
		return nil, errors.New("store: watch path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("store: resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("store: watch directory %s: %w", dir, os.ErrNotExist)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("store: watch %s: %w", dir, err)
	}

	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer watcher.Close()

		var wg sync.WaitGroup
		send := func(ev Event) {
			select {
			case events <- ev:
			default:
				// Drop events if the consumer is not ready; the next
				// flush carries the same information.
			}
		}

		throttle := newEventThrottle(100*time.Millisecond, &wg)
		defer wg.Wait()
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				throttle.Enqueue(Event{Type: EventError, Path: abs}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs {
					continue
				}
				switch {
				case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					if _, err := os.Stat(abs); err == nil {
						throttle.Enqueue(Event{Type: EventChanged, Path: abs}, send)
					} else {
						throttle.Enqueue(Event{Type: EventRemoved, Path: abs}, send)
					}
				case evt.Op&(fsnotify.Write|fsnotify.Create) != 0:
					throttle.Enqueue(Event{Type: EventChanged, Path: abs}, send)
				}
			}
		}
	}()

	return events, nil
}

// eventThrottle coalesces rapid change notifications so a consumer reloads
// once per burst of filesystem activity instead of on every single write.
// The last event type of a burst wins.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending *Event
	delay   time.Duration
	stopped bool
	wg      *sync.WaitGroup
}

func newEventThrottle(delay time.Duration, wg *sync.WaitGroup) *eventThrottle {
	return &eventThrottle{delay: delay, wg: wg}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.pending = &ev
	if t.timer == nil {
		t.wg.Add(1)
		t.timer = time.AfterFunc(t.delay, func() {
			defer t.wg.Done()
			t.flush(send)
		})
	}
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.timer = nil
	stopped := t.stopped
	t.mu.Unlock()

	if pending != nil && !stopped {
		send(*pending)
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	t.stopped = true
	if t.timer != nil && t.timer.Stop() {
		t.wg.Done()
	}
	t.timer = nil
	t.mu.Unlock()
}
