// Package logging provides structured logging for lockpanel.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used by the panel, the bridge and the CLI commands.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: request/response tracing, stale poll responses, cue timers
//   - Info: state changes (door unlocked, bridge sends, feed clients)
//   - Warn: skipped poll cycles, serial write failures
//   - Error: startup failures
//
// # Silent By Default
//
// Logging is silent unless LOCKPANEL_LOG_LEVEL is set or a level is passed
// to Initialize. The dashboard owns the terminal, so interactive use should
// direct output to a file:
//
//	if err := logging.Initialize("debug", "/tmp/lockpanel.log"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Structured Logging
//
//	logging.Info("Door unlocked",
//	    zap.String("source", "status_poll"),
//	)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
