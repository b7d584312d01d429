package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Timers and tickers fire
// only when Advance moves the virtual time past their deadline.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

// NewFake returns a fake clock starting at a fixed reference time.
func NewFake() *Fake {
	return &Fake{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the virtual time forward, firing any timers or tickers
// whose deadline is reached.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now

	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if w.fire(now) {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining
	f.mu.Unlock()

	// Give any goroutine blocked on a fired channel a chance to run.
	time.Sleep(time.Millisecond)
}

// NewTimer returns a one-shot virtual timer.
func (f *Fake) NewTimer(d time.Duration) Timer {
	return f.addWaiter(d, 0)
}

// NewTicker returns a repeating virtual ticker.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	return fakeTicker{f.addWaiter(d, d)}
}

type fakeTicker struct{ w *fakeWaiter }

func (t fakeTicker) C() <-chan time.Time { return t.w.ch }
func (t fakeTicker) Stop()               { t.w.Stop() }

// Pending returns the number of timers and tickers not yet fired or stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

func (f *Fake) addWaiter(d, interval time.Duration) *fakeWaiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{
		ch:       make(chan time.Time, 1),
		deadline: f.now.Add(d),
		interval: interval,
	}
	f.waiters = append(f.waiters, w)
	return w
}

type fakeWaiter struct {
	mu       sync.Mutex
	ch       chan time.Time
	deadline time.Time
	interval time.Duration
	stopped  bool
}

// fire delivers due ticks and reports whether the waiter stays registered.
func (w *fakeWaiter) fire(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	if now.Before(w.deadline) {
		return true
	}

	select {
	case w.ch <- w.deadline:
	default:
	}

	if w.interval <= 0 {
		return false
	}
	for !w.deadline.After(now) {
		w.deadline = w.deadline.Add(w.interval)
	}
	return true
}

func (w *fakeWaiter) C() <-chan time.Time { return w.ch }

func (w *fakeWaiter) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := !w.stopped
	w.stopped = true
	return was
}
