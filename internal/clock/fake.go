package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Timers fire only when
// Advance moves the fake time past their deadline.
type Fake struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	at       time.Time
	interval time.Duration // 0 for one-shot timers
	ch       chan time.Time
	stopped  bool
}

// NewFake returns a Fake clock pinned to start.
func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that fires once the fake time advances by d.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{at: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.waiters = append(f.waiters, w)
	f.cond.Broadcast()
	return w.ch
}

// NewTicker returns a Ticker driven by Advance.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{at: f.now.Add(d), interval: d, ch: make(chan time.Time, 1)}
	f.waiters = append(f.waiters, w)
	f.cond.Broadcast()
	return &fakeTicker{f: f, w: w}
}

type fakeTicker struct {
	f *Fake
	w *fakeWaiter
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.w.ch }

func (t *fakeTicker) Stop() {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.w.stopped = true
	t.f.remove(t.w)
}

// Advance moves the fake time forward, firing every timer and tick whose
// deadline falls inside the window, in deadline order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.now.Add(d)
	for {
		w := f.nextDue(target)
		if w == nil {
			break
		}
		f.now = w.at
		// Non-blocking send: a ticker whose consumer is behind drops the
		// tick, same as time.Ticker.
		select {
		case w.ch <- f.now:
		default:
		}
		if w.interval > 0 {
			w.at = w.at.Add(w.interval)
		} else {
			f.remove(w)
		}
	}
	f.now = target
}

// BlockUntil waits until at least n timers or tickers are pending.
// Lets tests synchronize with a goroutine that arms its timer asynchronously.
func (f *Fake) BlockUntil(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.waiters) < n {
		f.cond.Wait()
	}
}

// nextDue returns the earliest waiter due at or before target, or nil.
// Caller holds f.mu.
func (f *Fake) nextDue(target time.Time) *fakeWaiter {
	var due *fakeWaiter
	for _, w := range f.waiters {
		if w.stopped || w.at.After(target) {
			continue
		}
		if due == nil || w.at.Before(due.at) {
			due = w
		}
	}
	return due
}

// remove deletes w from the waiter list. Caller holds f.mu.
func (f *Fake) remove(target *fakeWaiter) {
	for i, w := range f.waiters {
		if w == target {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}
