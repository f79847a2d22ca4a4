// Package config provides user configuration for lockpanel.
//
// The configuration is a YAML file holding the lock server address, the
// panel timings, the Arduino bridge settings and the websocket feed
// address. Every value has a default, so the file is optional.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/lockpanel/config.yaml or $HOME/.config/lockpanel/config.yaml
//   - macOS: $HOME/.config/lockpanel/config.yaml
//   - Windows: %LOCALAPPDATA%\lockpanel\config.yaml
//
// # Environment
//
// After the file is read, an optional .env file is loaded into the process
// environment and the following variables override the file:
//
//	SMARTLOCK_URL        lock server base URL
//	FLASK_STATUS_URL     status URL tried first by the bridge
//	ARDUINO_PORT         serial port of the Arduino
//	ARDUINO_BAUD         serial baud rate
//	ARDUINO_UNLOCK_BYTE  byte written on unlock (first byte of the value)
//	POLL_INTERVAL        bridge poll interval, seconds (e.g. 0.6)
//	DEBOUNCE_SECONDS     minimum gap between unlock bytes, seconds
//	REQUEST_TIMEOUT      bridge request timeout, seconds
//
// Command-line flags override both.
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := lockapi.NewClient(cfg.Server.URL)
//	client.SetTimeout(cfg.Server.Timeout())
//
// # Thread Safety
//
// The global configuration is loaded once using sync.Once. Save is
// serialized by a mutex and writes atomically.
package config
