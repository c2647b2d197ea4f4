package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the quiet period applied to change bursts.
// Editors and atomic-save tools produce several events per logical save;
// one notification per burst is enough.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer coalesces rapid trigger bursts into a single callback after a
// quiet period. Safe for concurrent use.
type Debouncer struct {
	d     time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
// Non-positive durations fall back to DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{d: d}
}

// Duration returns the configured quiet period.
func (b *Debouncer) Duration() time.Duration { return b.d }

// Trigger schedules fn after the quiet period, resetting the clock if a
// trigger is already pending. Only the latest fn runs.
func (b *Debouncer) Trigger(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.d, fn)
}

// Cancel drops any pending trigger.
func (b *Debouncer) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
