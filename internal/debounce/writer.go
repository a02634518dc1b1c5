// Package debounce coalesces rapid successive writes of the same value
// into one delayed flush. Used for canvas autosave, where every pen stroke
// produces a new full snapshot but only the last one within the window
// needs to reach storage.
package debounce

import (
	"sync"
	"time"
)

// Writer holds at most one pending value and flushes it after the write
// window elapses with no newer value arriving. Set replaces the pending
// value and restarts the window.
type Writer[T any] struct {
	mu      sync.Mutex
	window  time.Duration
	flush   func(T)
	pending *T
	timer   *time.Timer
	closed  bool
}

// NewWriter builds a writer that calls flush with the surviving value.
// flush runs on the timer goroutine; it must not call back into the writer.
func NewWriter[T any](window time.Duration, flush func(T)) *Writer[T] {
	return &Writer[T]{window: window, flush: flush}
}

// Set stores v as the pending value, replacing any earlier one, and
// restarts the flush window.
func (w *Writer[T]) Set(v T) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.pending = &v
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, w.fire)
}

func (w *Writer[T]) fire() {
	w.mu.Lock()
	v := w.pending
	w.pending = nil
	w.timer = nil
	w.mu.Unlock()

	if v != nil {
		w.flush(*v)
	}
}

// Flush writes any pending value immediately and cancels the window.
func (w *Writer[T]) Flush() {
	w.mu.Lock()
	v := w.pending
	w.pending = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if v != nil {
		w.flush(*v)
	}
}

// Close flushes any pending value and rejects further Sets.
func (w *Writer[T]) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.Flush()
}

// Discard drops any pending value without flushing and rejects further
// Sets. Used when the data the writer was buffering has been deleted.
func (w *Writer[T]) Discard() {
	w.mu.Lock()
	w.closed = true
	w.pending = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
}
