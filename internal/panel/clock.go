package panel

import (
	"sync/atomic"
	"time"
)

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	// Stop cancels the timer. It reports whether the call stopped the
	// timer before its callback was started.
	Stop() bool
}

// Clock schedules callbacks. Callbacks run on clock-owned goroutines and
// must hand their work to the panel loop themselves.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Every(d time.Duration, f func()) Timer
}

// RealClock schedules on the runtime timers
type RealClock struct{}

// AfterFunc runs f once after d
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Every runs f every d until stopped
func (RealClock) Every(d time.Duration, f func()) Timer {
	t := &ticker{
		ticker: time.NewTicker(d),
		quit:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.quit:
				return
			case <-t.ticker.C:
				f()
			}
		}
	}()
	return t
}

type ticker struct {
	ticker  *time.Ticker
	quit    chan struct{}
	stopped atomic.Bool
}

func (t *ticker) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.ticker.Stop()
	close(t.quit)
	return true
}
