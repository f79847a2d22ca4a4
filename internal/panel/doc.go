// Package panel keeps a lock dashboard in step with the lock server.
//
// A Panel owns three pieces of process-wide state and the logic around them:
//
//   - the last observed door state, fed by the status poll. A locked to
//     unlocked edge fires the unlock cue exactly once; the first poll after
//     start never fires.
//   - the pending cue expiry. Re-triggering the cue restarts its window
//     instead of stacking a second timer.
//   - the in-flight passcode verification. The submit control stays
//     disabled from submission until the response settles, on every path.
//
// All of that state is touched only from a single serial loop. Network calls
// run on their own goroutines and hand their results back to the loop, so the
// loop is never blocked and no state needs a lock.
//
// Output goes to a set of optional slots (see Slots). A nil slot is bound to
// a no-op once, when the Panel is built.
//
// # Usage
//
//	client := lockapi.NewClient("http://127.0.0.1:5000")
//	p := panel.New(client, slots, panel.DefaultConfig())
//	go p.Run(ctx)
//	p.Submit(input)
package panel
