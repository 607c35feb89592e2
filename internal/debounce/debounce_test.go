package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cranach-archive/lighttable/internal/metrics"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	sched := NewManual()
	d := New("test-burst", 0, sched)

	var last int
	calls := 0
	for i := 1; i <= 5; i++ {
		v := i
		d.Trigger(func() {
			calls++
			last = v
		})
	}

	if sched.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", sched.Pending())
	}
	if sched.LastDelay() != DefaultWindow {
		t.Errorf("delay = %v, want %v", sched.LastDelay(), DefaultWindow)
	}

	sched.FireAll()
	if calls != 1 || last != 5 {
		t.Errorf("calls = %d last = %d, want 1 call with the last action", calls, last)
	}
	if d.Pending() {
		t.Error("debouncer still pending after fire")
	}
	if v := testutil.ToFloat64(metrics.DebounceCollapsedTotal.WithLabelValues("test-burst")); v != 4 {
		t.Errorf("collapsed = %f, want 4", v)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	sched := NewManual()
	d := New("test-cancel", time.Second, sched)

	if d.Cancel() {
		t.Error("Cancel() reported pending on idle debouncer")
	}
	called := false
	d.Trigger(func() { called = true })
	if !d.Cancel() {
		t.Error("Cancel() = false with pending action")
	}
	sched.FireAll()
	if called {
		t.Error("cancelled action ran")
	}
}

func TestDebouncer_Close(t *testing.T) {
	sched := NewManual()
	d := New("test-close", 0, sched)

	called := false
	d.Trigger(func() { called = true })
	d.Close()
	d.Trigger(func() { called = true })

	sched.Flush()
	if called {
		t.Error("action ran after Close")
	}
}

func TestDebouncer_StaleTimerIgnored(t *testing.T) {
	sched := NewManual()
	d := New("test-stale", 0, sched)

	var ran []int
	d.Trigger(func() { ran = append(ran, 1) })
	d.Trigger(func() { ran = append(ran, 2) })

	// Stop succeeded for the first timer, so only the second is due.
	if n := sched.FireAll(); n != 1 {
		t.Fatalf("fired %d timers", n)
	}
	if len(ran) != 1 || ran[0] != 2 {
		t.Errorf("ran = %v", ran)
	}
}

func TestDebouncer_RealScheduler(t *testing.T) {
	d := New("test-real", 50*time.Millisecond, nil)
	var calls atomic.Int32
	done := make(chan struct{})

	for i := 0; i < 3; i++ {
		d.Trigger(func() {
			calls.Add(1)
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced action never ran")
	}
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
