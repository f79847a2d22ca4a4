package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognised by ApplyEnv
const (
	EnvServerURL      = "SMARTLOCK_URL"
	EnvStatusURL      = "FLASK_STATUS_URL"
	EnvSerialPort     = "ARDUINO_PORT"
	EnvSerialBaud     = "ARDUINO_BAUD"
	EnvUnlockByte     = "ARDUINO_UNLOCK_BYTE"
	EnvPollInterval   = "POLL_INTERVAL"
	EnvDebounce       = "DEBOUNCE_SECONDS"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
)

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. With no arguments it loads
// ./.env if present. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}

	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides configuration values from the environment. lookup is
// normally os.LookupEnv. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	var errs []error

	if v, ok := get(EnvServerURL); ok {
		c.Server.URL = strings.TrimRight(v, "/")
	}
	if v, ok := get(EnvStatusURL); ok {
		c.Bridge.StatusURL = v
	}
	if v, ok := get(EnvSerialPort); ok {
		c.Bridge.Port = v
	}
	if v, ok := get(EnvSerialBaud); ok {
		baud, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", EnvSerialBaud, v))
		} else {
			c.Bridge.Baud = baud
		}
	}
	if v, ok := lookup(EnvUnlockByte); ok && v != "" {
		c.Bridge.UnlockByte = v[:1]
	}

	seconds := []struct {
		key  string
		dest *int
	}{
		{EnvPollInterval, &c.Bridge.PollIntervalMS},
		{EnvDebounce, &c.Bridge.DebounceMS},
		{EnvRequestTimeout, &c.Bridge.RequestTimeoutMS},
	}
	for _, s := range seconds {
		v, ok := get(s.key)
		if !ok {
			continue
		}
		d, err := parseSeconds(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.key, err))
			continue
		}
		*s.dest = int(d / time.Millisecond)
	}

	return errors.Join(errs...)
}

// parseSeconds accepts a decimal number of seconds ("0.6") or a Go
// duration ("600ms").
func parseSeconds(v string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f < 0 {
			return 0, fmt.Errorf("negative duration %q", v)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return d, nil
}
