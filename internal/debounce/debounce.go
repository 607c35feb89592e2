// Package debounce delays an action until triggers pause for a fixed window.
// Each Debouncer holds at most one pending timer; a new trigger replaces it.
package debounce

import (
	"sync"
	"time"

	"github.com/cranach-archive/lighttable/internal/metrics"
)

// DefaultWindow is the pause required before a debounced action runs.
const DefaultWindow = 500 * time.Millisecond

// Timer is a scheduled call that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler schedules f after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealScheduler returns a Scheduler backed by time.AfterFunc.
func RealScheduler() Scheduler { return clock{} }

// Debouncer collapses bursts of triggers into one call of the last action.
type Debouncer struct {
	mu      sync.Mutex
	name    string
	window  time.Duration
	sched   Scheduler
	pending Timer
	gen     uint64
	closed  bool
}

// New creates a debouncer. name labels its metrics. A zero window uses
// DefaultWindow, a nil scheduler uses RealScheduler.
func New(name string, window time.Duration, sched Scheduler) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	if sched == nil {
		sched = RealScheduler()
	}
	return &Debouncer{name: name, window: window, sched: sched}
}

// Trigger schedules fn after the window, cancelling any pending action.
// Triggers after Close are ignored.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if d.pending != nil && d.pending.Stop() {
		metrics.DebounceCollapsedTotal.WithLabelValues(d.name).Inc()
	}
	metrics.DebounceTriggersTotal.WithLabelValues(d.name).Inc()

	d.gen++
	gen := d.gen
	d.pending = d.sched.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.closed || d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending action. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Pending reports whether an action is waiting for the window to pass.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Close cancels the pending action and disables the debouncer.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.closed = true
}

func (d *Debouncer) cancelLocked() bool {
	if d.pending == nil {
		return false
	}
	d.pending.Stop()
	d.pending = nil
	d.gen++
	return true
}
