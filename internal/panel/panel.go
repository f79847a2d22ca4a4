package panel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/lockapi"
	"github.com/muurk/lockpanel/internal/logging"
)

const (
	// DefaultOTPInterval is the period of the passcode poll
	DefaultOTPInterval = time.Second

	// DefaultStatusInterval is the period of the door/Bluetooth poll
	DefaultStatusInterval = time.Second

	// loopBacklog bounds the number of queued loop tasks
	loopBacklog = 64
)

// Transport is the subset of the lock API the panel uses.
// *lockapi.Client implements it.
type Transport interface {
	GetOTP(ctx context.Context) (*lockapi.OTPResponse, error)
	GetStatus(ctx context.Context) (*lockapi.StatusResponse, error)
	VerifyOTP(ctx context.Context, code string) (*lockapi.PostResult, error)
	UnlockBluetooth(ctx context.Context) (*lockapi.PostResult, error)
	ToggleBluetooth(ctx context.Context) (*lockapi.PostResult, error)
	MediaUnlock(ctx context.Context) (*lockapi.PostResult, error)
}

// Config holds panel timing and input rules
type Config struct {
	OTPInterval    time.Duration
	StatusInterval time.Duration
	CueWindow      time.Duration
	PasscodeDigits int

	// Observer, if set, receives every Event on the panel loop.
	// It must not block.
	Observer func(Event)
}

// DefaultConfig returns the standard panel timing
func DefaultConfig() Config {
	return Config{
		OTPInterval:    DefaultOTPInterval,
		StatusInterval: DefaultStatusInterval,
		CueWindow:      DefaultCueWindow,
		PasscodeDigits: DefaultPasscodeDigits,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.OTPInterval <= 0 {
		c.OTPInterval = d.OTPInterval
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = d.StatusInterval
	}
	if c.CueWindow <= 0 {
		c.CueWindow = d.CueWindow
	}
	if c.PasscodeDigits <= 0 {
		c.PasscodeDigits = d.PasscodeDigits
	}
	return c
}

// DeviceStatus is one polled status snapshot
type DeviceStatus struct {
	BluetoothEnabled bool `json:"bluetooth_enabled"`
	DoorLocked       bool `json:"door_locked"`
}

// OTPSnapshot is one polled passcode snapshot
type OTPSnapshot struct {
	Code             string `json:"code"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// EventKind identifies what an Event reports
type EventKind string

const (
	EventStatus     EventKind = "status"
	EventOTP        EventKind = "otp"
	EventUnlock     EventKind = "unlock"
	EventCueExpired EventKind = "cue_expired"
	EventResult     EventKind = "result"
)

// Event reports a state change applied by the panel
type Event struct {
	Kind    EventKind
	Status  *DeviceStatus
	OTP     *OTPSnapshot
	Message *ResultMessage
}

// Panel synchronizes slots with the lock server
type Panel struct {
	transport Transport
	sink      sink
	cfg       Config
	log       *zap.Logger

	loop  *Loop
	exec  Executor
	clock Clock
	spawn func(func())
	ctx   context.Context

	detector  Detector
	debouncer *Debouncer
	verifier  verifier

	otpSeq    sequence
	statusSeq sequence

	tickers []Timer
}

// New creates a panel bound to slots. Call Run to start polling.
func New(transport Transport, slots Slots, cfg Config) *Panel {
	loop := NewLoop(loopBacklog)
	p := newPanel(transport, slots, cfg, loop, RealClock{}, func(f func()) { go f() })
	p.loop = loop
	return p
}

func newPanel(transport Transport, slots Slots, cfg Config, exec Executor, clock Clock, spawn func(func())) *Panel {
	cfg = cfg.withDefaults()
	log := logging.Named("panel")
	p := &Panel{
		transport: transport,
		sink:      bind(slots),
		cfg:       cfg,
		log:       log,
		exec:      exec,
		clock:     clock,
		spawn:     spawn,
		ctx:       context.Background(),
	}
	p.debouncer = newDebouncer(p.sink, cfg.CueWindow, clock, exec.Post, log)
	p.debouncer.onExpire = func() { p.emit(Event{Kind: EventCueExpired}) }
	return p
}

// Run polls the server and processes panel work until ctx is cancelled
func (p *Panel) Run(ctx context.Context) {
	p.ctx = ctx
	p.start()
	defer p.stop()

	p.log.Info("Panel started",
		zap.Duration("otp_interval", p.cfg.OTPInterval),
		zap.Duration("status_interval", p.cfg.StatusInterval),
	)
	p.loop.Run(ctx)
	p.log.Info("Panel stopped")
}

// start runs both poll cycles once and schedules them on their intervals
func (p *Panel) start() {
	p.exec.Post(p.refreshOTP)
	p.exec.Post(p.refreshStatus)
	p.tickers = append(p.tickers,
		p.clock.Every(p.cfg.OTPInterval, func() { p.exec.Post(p.refreshOTP) }),
		p.clock.Every(p.cfg.StatusInterval, func() { p.exec.Post(p.refreshStatus) }),
	)
}

func (p *Panel) stop() {
	for _, t := range p.tickers {
		t.Stop()
	}
	p.tickers = nil
	p.debouncer.Stop()
}

// Submit verifies the passcode held by input. A nil input means the form
// has no passcode field.
func (p *Panel) Submit(input PasscodeInput) {
	p.exec.Post(func() { p.submit(input) })
}

// ShowCurrentOTP fetches the passcode and shows it as a result message
func (p *Panel) ShowCurrentOTP() {
	p.exec.Post(p.showCurrentOTP)
}

// UnlockBluetooth asks the server to unlock via Bluetooth, then refreshes
func (p *Panel) UnlockBluetooth() {
	p.exec.Post(func() { p.fireAndForget("unlock_bt", p.transport.UnlockBluetooth) })
}

// ToggleBluetooth flips Bluetooth on the server, then refreshes
func (p *Panel) ToggleBluetooth() {
	p.exec.Post(func() { p.fireAndForget("toggle_bt", p.transport.ToggleBluetooth) })
}

// MediaUnlock triggers the media-key unlock, then refreshes
func (p *Panel) MediaUnlock() {
	p.exec.Post(func() { p.fireAndForget("media_unlock", p.transport.MediaUnlock) })
}

// background runs work off the loop and queues its continuation back on it
func (p *Panel) background(work func(ctx context.Context) func()) {
	ctx := p.ctx
	p.spawn(func() {
		then := work(ctx)
		if then != nil {
			p.exec.Post(then)
		}
	})
}

func (p *Panel) showResult(msg ResultMessage) {
	p.sink.result.ShowMessage(msg)
	p.emit(Event{Kind: EventResult, Message: &msg})
}

func (p *Panel) emit(ev Event) {
	if p.cfg.Observer != nil {
		p.cfg.Observer(ev)
	}
}
