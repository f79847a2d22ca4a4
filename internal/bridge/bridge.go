package bridge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/lockpanel/internal/lockapi"
	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/panel"
)

// Defaults match the Arduino sketch the bridge was written for
const (
	DefaultBaud           = 9600
	DefaultUnlockByte     = 'a'
	DefaultPollInterval   = 600 * time.Millisecond
	DefaultDebounce       = time.Second
	DefaultRequestTimeout = time.Second

	// DefaultOpenSettle is how long an Arduino needs after the port opens
	// (opening resets the board).
	DefaultOpenSettle = 2 * time.Second
)

// Config configures a Bridge
type Config struct {
	// StatusURL skips probing when set
	StatusURL string

	// Candidates are probed in order when StatusURL is empty
	Candidates []string

	Port       string
	Baud       int
	UnlockByte byte

	PollInterval   time.Duration
	Debounce       time.Duration
	RequestTimeout time.Duration
	OpenSettle     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.UnlockByte == 0 {
		c.UnlockByte = DefaultUnlockByte
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Debounce < 0 {
		c.Debounce = 0
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.OpenSettle < 0 {
		c.OpenSettle = 0
	}
	return c
}

// Stats counts what the bridge did. Read it after Run returns.
type Stats struct {
	Polls     int
	Skipped   int
	Unlocks   int
	Sent      int
	Debounced int
	Failed    int
}

// Bridge polls the lock server and drives the Arduino
type Bridge struct {
	cfg  Config
	open Opener
	log  *zap.Logger
	now  func() time.Time

	httpClient *http.Client
	status     *lockapi.Client

	port     io.WriteCloser
	limiter  *rate.Limiter
	detector panel.Detector
	stats    Stats
}

// New creates a bridge that opens ports with open (normally OpenSerial)
func New(cfg Config, open Opener) *Bridge {
	cfg = cfg.withDefaults()

	limit := rate.Inf
	if cfg.Debounce > 0 {
		limit = rate.Every(cfg.Debounce)
	}

	return &Bridge{
		cfg:        cfg,
		open:       open,
		log:        logging.Named("bridge"),
		now:        time.Now,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Stats returns the counters
func (b *Bridge) Stats() Stats {
	return b.stats
}

// Run finds the status endpoint, then polls it until ctx is cancelled.
// It fails only when no status endpoint answers.
func (b *Bridge) Run(ctx context.Context) error {
	statusURL, err := b.resolve(ctx)
	if err != nil {
		return err
	}
	b.log.Info("Polling status endpoint",
		zap.String("url", statusURL),
		zap.Duration("interval", b.cfg.PollInterval),
		zap.String("port", b.cfg.Port),
	)

	defer b.closePort()
	b.tryOpen(ctx)

	b.poll(ctx)

	timer := time.NewTimer(b.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("Bridge shutting down")
			return nil
		case <-timer.C:
			b.poll(ctx)
			timer.Reset(b.cfg.PollInterval)
		}
	}
}

// resolve picks the status URL and builds the status client
func (b *Bridge) resolve(ctx context.Context) (string, error) {
	statusURL := b.cfg.StatusURL
	if statusURL == "" {
		b.log.Info("Probing status endpoint", zap.Strings("candidates", b.cfg.Candidates))
		u, err := lockapi.Probe(ctx, b.httpClient, b.cfg.Candidates)
		if err != nil {
			return "", err
		}
		statusURL = u
	}

	b.status = lockapi.NewClient(statusURL)
	b.status.HTTPClient = b.httpClient
	b.status.RequireOK = true
	return statusURL, nil
}

// poll runs one status cycle. A failed cycle leaves the detector alone.
func (b *Bridge) poll(ctx context.Context) {
	b.stats.Polls++

	// A body without door_locked reads as locked
	status := lockapi.StatusResponse{DoorLocked: true}
	if err := b.status.Get(ctx, "", &status); err != nil {
		b.stats.Skipped++
		switch {
		case lockapi.IsHTTPError(err):
			b.log.Info("Status endpoint returned an error", zap.Int("status_code", lockapi.StatusCode(err)))
		case lockapi.IsDecodeError(err):
			b.log.Warn("Status endpoint returned invalid JSON", zap.Error(err))
		default:
			b.log.Debug("Status poll failed", zap.Error(err))
		}
		return
	}

	if b.detector.Observe(status.DoorLocked) {
		b.stats.Unlocks++
		b.log.Info("Detected locked->unlocked")
		b.sendUnlock(ctx)
	}
}

// sendUnlock writes the unlock byte unless one was sent within the
// debounce window. A failed attempt does not use up the window.
func (b *Bridge) sendUnlock(ctx context.Context) bool {
	now := b.now()
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() || r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		b.stats.Debounced++
		b.log.Info("Unlock debounced")
		return false
	}

	if !b.tryOpen(ctx) {
		r.CancelAt(now)
		b.stats.Failed++
		b.log.Warn("Serial not available")
		return false
	}

	if err := b.write(); err != nil {
		r.CancelAt(now)
		b.stats.Failed++
		b.log.Warn("Serial write failed", zap.Error(err))
		b.closePort()
		return false
	}

	b.stats.Sent++
	b.log.Info("Sent unlock byte", zap.String("byte", string(b.cfg.UnlockByte)))
	return true
}

func (b *Bridge) write() error {
	n, err := b.port.Write([]byte{b.cfg.UnlockByte})
	if err != nil {
		return err
	}
	if n != 1 {
		return io.ErrShortWrite
	}
	if d, ok := b.port.(drainer); ok {
		if err := d.Drain(); err != nil {
			b.log.Debug("Serial drain failed", zap.Error(err))
		}
	}
	return nil
}

// tryOpen opens the port if it is not open yet and reports whether it is
func (b *Bridge) tryOpen(ctx context.Context) bool {
	if b.port != nil {
		return true
	}
	if b.open == nil {
		return false
	}

	port, err := b.open(b.cfg.Port, b.cfg.Baud)
	if err != nil {
		b.log.Warn("Cannot open serial port", zap.String("port", b.cfg.Port), zap.Error(err))
		return false
	}
	b.port = port
	b.log.Info("Opened serial port", zap.String("port", b.cfg.Port), zap.Int("baud", b.cfg.Baud))

	if b.cfg.OpenSettle > 0 {
		t := time.NewTimer(b.cfg.OpenSettle)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return true
}

func (b *Bridge) closePort() {
	if b.port == nil {
		return
	}
	if err := b.port.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		b.log.Debug("Serial close failed", zap.Error(err))
	}
	b.port = nil
}
