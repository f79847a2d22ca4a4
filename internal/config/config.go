package config

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"time"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Config is the whole configuration file
type Config struct {
	Version int          `yaml:"version"`
	Server  ServerConfig `yaml:"server"`
	Panel   PanelConfig  `yaml:"panel"`
	Bridge  BridgeConfig `yaml:"bridge"`
	Feed    FeedConfig   `yaml:"feed"`
}

// ServerConfig locates the lock server
type ServerConfig struct {
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
	Retries   int    `yaml:"retries"` // one-shot commands only; pollers never retry
}

// PanelConfig holds the dashboard timings
type PanelConfig struct {
	OTPIntervalMS    int `yaml:"otp_interval_ms"`
	StatusIntervalMS int `yaml:"status_interval_ms"`
	CueWindowMS      int `yaml:"cue_window_ms"`
	PasscodeDigits   int `yaml:"passcode_digits"`
}

// BridgeConfig configures the Arduino bridge
type BridgeConfig struct {
	Port             string   `yaml:"port"`
	Baud             int      `yaml:"baud"`
	UnlockByte       string   `yaml:"unlock_byte"`
	PollIntervalMS   int      `yaml:"poll_interval_ms"`
	DebounceMS       int      `yaml:"debounce_ms"`
	RequestTimeoutMS int      `yaml:"request_timeout_ms"`
	StatusURL        string   `yaml:"status_url,omitempty"` // tried before Candidates
	Candidates       []string `yaml:"candidates"`
}

// FeedConfig configures the websocket mirror
type FeedConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultCandidates are the status URLs the bridge probes when none is set
var DefaultCandidates = []string{
	"http://127.0.0.1:5000/status",
	"http://localhost:5000/status",
	"http://127.0.0.1:8000/status",
	"http://localhost:8000/status",
}

// DefaultSerialPort returns the usual Arduino port name for the platform
func DefaultSerialPort() string {
	switch runtime.GOOS {
	case "windows":
		return "COM5"
	case "darwin":
		return "/dev/tty.usbmodem1101"
	default:
		return "/dev/ttyACM0"
	}
}

// New returns a configuration with every default filled in
func New() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			URL:       "http://127.0.0.1:5000",
			TimeoutMS: 5000,
		},
		Panel: PanelConfig{
			OTPIntervalMS:    1000,
			StatusIntervalMS: 1000,
			CueWindowMS:      2800,
			PasscodeDigits:   4,
		},
		Bridge: BridgeConfig{
			Port:             DefaultSerialPort(),
			Baud:             9600,
			UnlockByte:       "a",
			PollIntervalMS:   600,
			DebounceMS:       1000,
			RequestTimeoutMS: 1000,
			Candidates:       append([]string(nil), DefaultCandidates...),
		},
		Feed: FeedConfig{
			Addr: "127.0.0.1:8765",
		},
	}
}

// fillDefaults replaces zero values left by a partial file
func (c *Config) fillDefaults() {
	d := New()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	if c.Server.TimeoutMS == 0 {
		c.Server.TimeoutMS = d.Server.TimeoutMS
	}
	if c.Panel.OTPIntervalMS == 0 {
		c.Panel.OTPIntervalMS = d.Panel.OTPIntervalMS
	}
	if c.Panel.StatusIntervalMS == 0 {
		c.Panel.StatusIntervalMS = d.Panel.StatusIntervalMS
	}
	if c.Panel.CueWindowMS == 0 {
		c.Panel.CueWindowMS = d.Panel.CueWindowMS
	}
	if c.Panel.PasscodeDigits == 0 {
		c.Panel.PasscodeDigits = d.Panel.PasscodeDigits
	}
	if c.Bridge.Port == "" {
		c.Bridge.Port = d.Bridge.Port
	}
	if c.Bridge.Baud == 0 {
		c.Bridge.Baud = d.Bridge.Baud
	}
	if c.Bridge.UnlockByte == "" {
		c.Bridge.UnlockByte = d.Bridge.UnlockByte
	}
	if c.Bridge.PollIntervalMS == 0 {
		c.Bridge.PollIntervalMS = d.Bridge.PollIntervalMS
	}
	if c.Bridge.DebounceMS == 0 {
		c.Bridge.DebounceMS = d.Bridge.DebounceMS
	}
	if c.Bridge.RequestTimeoutMS == 0 {
		c.Bridge.RequestTimeoutMS = d.Bridge.RequestTimeoutMS
	}
	if len(c.Bridge.Candidates) == 0 {
		c.Bridge.Candidates = d.Bridge.Candidates
	}
	if c.Feed.Addr == "" {
		c.Feed.Addr = d.Feed.Addr
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Timeout is the per-request timeout for the lock server
func (s ServerConfig) Timeout() time.Duration { return ms(s.TimeoutMS) }

func (p PanelConfig) OTPInterval() time.Duration    { return ms(p.OTPIntervalMS) }
func (p PanelConfig) StatusInterval() time.Duration { return ms(p.StatusIntervalMS) }
func (p PanelConfig) CueWindow() time.Duration      { return ms(p.CueWindowMS) }

func (b BridgeConfig) PollInterval() time.Duration   { return ms(b.PollIntervalMS) }
func (b BridgeConfig) Debounce() time.Duration       { return ms(b.DebounceMS) }
func (b BridgeConfig) RequestTimeout() time.Duration { return ms(b.RequestTimeoutMS) }

// Byte returns the single byte written to the Arduino on unlock
func (b BridgeConfig) Byte() byte {
	if b.UnlockByte == "" {
		return 'a'
	}
	return b.UnlockByte[0]
}

// StatusCandidates returns the URLs to probe, StatusURL first, without
// duplicates.
func (b BridgeConfig) StatusCandidates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range append([]string{b.StatusURL}, b.Candidates...) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error

	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if err := validateURL("server.url", c.Server.URL); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Retries < 0 {
		errs = append(errs, fmt.Errorf("server.retries must not be negative"))
	}

	positive := []struct {
		name  string
		value int
	}{
		{"server.timeout_ms", c.Server.TimeoutMS},
		{"panel.otp_interval_ms", c.Panel.OTPIntervalMS},
		{"panel.status_interval_ms", c.Panel.StatusIntervalMS},
		{"panel.cue_window_ms", c.Panel.CueWindowMS},
		{"panel.passcode_digits", c.Panel.PasscodeDigits},
		{"bridge.baud", c.Bridge.Baud},
		{"bridge.poll_interval_ms", c.Bridge.PollIntervalMS},
		{"bridge.request_timeout_ms", c.Bridge.RequestTimeoutMS},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}
	if c.Bridge.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("bridge.debounce_ms must not be negative"))
	}
	if len(c.Bridge.UnlockByte) != 1 {
		errs = append(errs, fmt.Errorf("bridge.unlock_byte must be exactly one byte, got %q", c.Bridge.UnlockByte))
	}
	for _, u := range c.Bridge.StatusCandidates() {
		if err := validateURL("bridge status url", u); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", field, raw)
	}
	return nil
}
