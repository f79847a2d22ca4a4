// Package bridge forwards door unlocks to an Arduino over a serial port.
//
// The bridge polls the lock server's status endpoint and, on every
// locked to unlocked transition, writes a single unlock byte to the
// serial port. The first status seen is a baseline and never triggers a
// write. Writes are limited to one per debounce window, and a port that
// fails a write is closed and reopened on the next unlock.
package bridge
