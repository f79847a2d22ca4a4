package panel

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/muurk/lockpanel/internal/lockapi"
)

// manualExec queues tasks until the test runs them
type manualExec struct {
	mu    sync.Mutex
	queue []func()
}

func (e *manualExec) Post(task func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, task)
	return true
}

// runNext runs the oldest queued task and reports whether there was one
func (e *manualExec) runNext() bool {
	e.mu.Lock()
	if len(e.queue) == 0 {
		e.mu.Unlock()
		return false
	}
	task := e.queue[0]
	e.queue = e.queue[1:]
	e.mu.Unlock()
	task()
	return true
}

// drain runs tasks until the queue is empty, including tasks queued by tasks
func (e *manualExec) drain() {
	for e.runNext() {
	}
}

func (e *manualExec) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// fakeClock fires timers only when advanced
type fakeClock struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at       time.Duration
	every    time.Duration
	f        func()
	stopped  bool
	finished bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.finished {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Every(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now + d, every: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// advance moves time forward, firing due timers in deadline order
func (c *fakeClock) advance(d time.Duration) {
	target := c.now + d
	for {
		due := c.due(target)
		if due == nil {
			break
		}
		c.now = due.at
		if due.every > 0 {
			due.at += due.every
		} else {
			due.finished = true
		}
		due.f()
	}
	c.now = target
}

func (c *fakeClock) due(target time.Duration) *fakeTimer {
	var live []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.finished && t.at <= target {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].at < live[j].at })
	return live[0]
}

// fakeTransport returns scripted answers and records calls
type fakeTransport struct {
	mu sync.Mutex

	statuses  []statusAnswer
	otps      []otpAnswer
	verify    verifyAnswer
	controlOK bool

	statusCalls  int
	otpCalls     int
	verifyCodes  []string
	controlCalls []string
}

type statusAnswer struct {
	status *lockapi.StatusResponse
	err    error
}

type otpAnswer struct {
	otp *lockapi.OTPResponse
	err error
}

type verifyAnswer struct {
	result *lockapi.PostResult
	err    error
}

var errTransport = lockapi.NewTransportError("GET request failed", "http://lock", errors.New("connection reset"))

func locked(b bool) statusAnswer {
	return statusAnswer{status: &lockapi.StatusResponse{BluetoothEnabled: true, DoorLocked: b}}
}

func (f *fakeTransport) GetStatus(ctx context.Context) (*lockapi.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if len(f.statuses) == 0 {
		return &lockapi.StatusResponse{BluetoothEnabled: true, DoorLocked: true}, nil
	}
	a := f.statuses[0]
	f.statuses = f.statuses[1:]
	return a.status, a.err
}

func (f *fakeTransport) GetOTP(ctx context.Context) (*lockapi.OTPResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpCalls++
	if len(f.otps) == 0 {
		return &lockapi.OTPResponse{OTP: "0000", Remaining: 15}, nil
	}
	a := f.otps[0]
	f.otps = f.otps[1:]
	return a.otp, a.err
}

func (f *fakeTransport) VerifyOTP(ctx context.Context, code string) (*lockapi.PostResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCodes = append(f.verifyCodes, code)
	return f.verify.result, f.verify.err
}

func (f *fakeTransport) control(name string) (*lockapi.PostResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controlCalls = append(f.controlCalls, name)
	if f.controlOK {
		return &lockapi.PostResult{Succeeded: true, StatusCode: 200}, nil
	}
	return nil, errTransport
}

func (f *fakeTransport) UnlockBluetooth(ctx context.Context) (*lockapi.PostResult, error) {
	return f.control("unlock_bt")
}

func (f *fakeTransport) ToggleBluetooth(ctx context.Context) (*lockapi.PostResult, error) {
	return f.control("toggle_bt")
}

func (f *fakeTransport) MediaUnlock(ctx context.Context) (*lockapi.PostResult, error) {
	return f.control("media_unlock")
}

// recorder implements every slot and keeps what it was told
type recorder struct {
	otp, remaining, btState string
	btDisabled              bool
	submitDisabled          bool
	submitWrites            []bool
	doorLocked              *bool
	active, pulse           bool
	activations             int
	deactivations           int
	reflows                 int
	messages                []ResultMessage
}

func (r *recorder) slots() Slots {
	return Slots{
		OTP:                     TextFunc(func(s string) { r.otp = s }),
		Remaining:               TextFunc(func(s string) { r.remaining = s }),
		BluetoothButtonDisabled: FlagFunc(func(b bool) { r.btDisabled = b }),
		BluetoothState:          TextFunc(func(s string) { r.btState = s }),
		DoorStatus:              DoorFunc(func(b bool) { r.doorLocked = &b }),
		UnlockCue:               r,
		SubmitDisabled: FlagFunc(func(b bool) {
			r.submitDisabled = b
			r.submitWrites = append(r.submitWrites, b)
		}),
		Result: MessageFunc(func(m ResultMessage) { r.messages = append(r.messages, m) }),
	}
}

func (r *recorder) SetActive(active bool) {
	if active && !r.active {
		r.activations++
	}
	if !active && r.active {
		r.deactivations++
	}
	r.active = active
}

func (r *recorder) SetPulse(pulse bool) { r.pulse = pulse }
func (r *recorder) Reflow()             { r.reflows++ }

func (r *recorder) lastMessage() ResultMessage {
	if len(r.messages) == 0 {
		return ResultMessage{}
	}
	return r.messages[len(r.messages)-1]
}

// harness wires a panel to fakes with inline background work
type harness struct {
	panel     *Panel
	exec      *manualExec
	clock     *fakeClock
	transport *fakeTransport
	rec       *recorder
	events    []Event

	// deferSpawn holds background work until runSpawned is called
	deferSpawn bool
	spawned    []func()
}

func newHarness(cfg Config) *harness {
	h := &harness{
		exec:      &manualExec{},
		clock:     &fakeClock{},
		transport: &fakeTransport{},
		rec:       &recorder{},
	}
	cfg.Observer = func(ev Event) { h.events = append(h.events, ev) }
	h.panel = newPanel(h.transport, h.rec.slots(), cfg, h.exec, h.clock, func(f func()) {
		if h.deferSpawn {
			h.spawned = append(h.spawned, f)
			return
		}
		f()
	})
	return h
}

// runSpawned runs held background work in the given order (indexes into
// the held list) and clears it.
func (h *harness) runSpawned(order ...int) {
	held := h.spawned
	h.spawned = nil
	if len(order) == 0 {
		for _, f := range held {
			f()
		}
		return
	}
	for _, i := range order {
		held[i]()
	}
}

func (h *harness) count(kind EventKind) int {
	n := 0
	for _, ev := range h.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
