package index

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the quiet period after an edit before a rescan
// fires.
const DefaultDebounceDelay = 300 * time.Millisecond

// Debouncer coalesces rapid successive rescan requests per document: each
// trigger resets that document's timer, and only the last request within a
// quiet period fires. Larger edits get a longer quiet period, since they tend
// to arrive in bursts (paste, refactor) and the scan itself costs more.
type Debouncer struct {
	mu     sync.Mutex
	base   time.Duration
	timers map[DocumentKey]*time.Timer
	fire   func(DocumentKey)
}

// NewDebouncer creates a debouncer that calls fire on the timer goroutine
// after the quiet period elapses. A non-positive base selects
// DefaultDebounceDelay.
func NewDebouncer(base time.Duration, fire func(DocumentKey)) *Debouncer {
	if base <= 0 {
		base = DefaultDebounceDelay
	}
	return &Debouncer{
		base:   base,
		timers: make(map[DocumentKey]*time.Timer),
		fire:   fire,
	}
}

// Trigger schedules (or reschedules) a rescan for key after a quiet period
// scaled by changeSize in bytes.
func (d *Debouncer) Trigger(key DocumentKey, changeSize int) {
	delay := d.base
	switch {
	case changeSize > 10_000:
		delay *= 4
	case changeSize > 1_000:
		delay *= 2
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()

		d.fire(key)
	})
}

// Cancel drops any pending rescan for key, used when the document closes
// before the quiet period elapses.
func (d *Debouncer) Cancel(key DocumentKey) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Stop cancels every pending rescan, for teardown.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Pending reports how many documents have a rescan scheduled.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
