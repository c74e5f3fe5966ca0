// Package clock abstracts time so sync heuristics (debounce, echo window,
// polling) can be tested deterministically instead of with real sleeps.
package clock

import "time"

// Clock produces the current time and timer primitives.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks at an interval until stopped.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// System returns a Clock backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (systemClock) NewTicker(d time.Duration) Ticker       { return systemTicker{time.NewTicker(d)} }

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) Chan() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()                  { s.t.Stop() }
