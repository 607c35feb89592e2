package debounce

import (
	"sync"
	"time"
)

// Manual is a Scheduler whose timers only fire when told to. It makes
// debounced code deterministic in tests.
type Manual struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

// NewManual creates a manual scheduler.
func NewManual() *Manual { return &Manual{} }

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{m: m, delay: d, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the number of timers neither stopped nor fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// LastDelay returns the delay of the most recently scheduled timer.
func (m *Manual) LastDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.timers) == 0 {
		return 0
	}
	return m.timers[len(m.timers)-1].delay
}

// FireAll runs every pending timer once, in scheduling order, and returns
// how many ran. Timers scheduled by the callbacks stay pending.
func (m *Manual) FireAll() int {
	m.mu.Lock()
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	m.timers = nil
	m.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

// Flush fires timers until none are pending.
func (m *Manual) Flush() int {
	total := 0
	for {
		n := m.FireAll()
		if n == 0 {
			return total
		}
		total += n
	}
}
