package panel

import (
	"time"

	"go.uber.org/zap"
)

// DefaultCueWindow is how long the unlock cue stays up after its last trigger
const DefaultCueWindow = 2800 * time.Millisecond

// Debouncer owns the unlock cue and its single pending expiry.
// Its methods must run on the panel loop.
type Debouncer struct {
	cue    CueSlot
	hasCue bool
	window time.Duration
	clock  Clock
	post   func(func()) bool
	log    *zap.Logger

	pending    Timer
	generation uint64
	active     bool

	// onExpire is called on the loop after the cue is cleared
	onExpire func()
}

func newDebouncer(s sink, window time.Duration, clock Clock, post func(func()) bool, log *zap.Logger) *Debouncer {
	return &Debouncer{
		cue:    s.cue,
		hasCue: s.hasCue,
		window: window,
		clock:  clock,
		post:   post,
		log:    log,
	}
}

// Trigger shows the cue, restarts its pulse and restarts the expiry window.
// Without a cue slot it does nothing.
func (d *Debouncer) Trigger() {
	if !d.hasCue {
		return
	}

	d.cue.SetActive(true)
	d.cue.SetPulse(false)
	d.cue.Reflow()
	d.cue.SetPulse(true)
	d.active = true

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}

	// An expiry already handed to the loop cannot be recalled by Stop;
	// the generation check drops it.
	d.generation++
	generation := d.generation
	d.pending = d.clock.AfterFunc(d.window, func() {
		d.post(func() { d.expire(generation) })
	})

	d.log.Debug("Unlock cue triggered",
		zap.Uint64("generation", generation),
		zap.Duration("window", d.window),
	)
}

func (d *Debouncer) expire(generation uint64) {
	if generation != d.generation {
		d.log.Debug("Stale cue expiry dropped", zap.Uint64("generation", generation))
		return
	}

	d.pending = nil
	d.active = false
	d.cue.SetActive(false)
	d.cue.SetPulse(false)

	if d.onExpire != nil {
		d.onExpire()
	}
}

// Active reports whether the cue is showing
func (d *Debouncer) Active() bool {
	return d.active
}

// Stop cancels a pending expiry without touching the cue
func (d *Debouncer) Stop() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.generation++
}
