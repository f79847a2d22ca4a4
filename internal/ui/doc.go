// Package ui renders the one-shot output of the lockpanel CLI commands.
//
// The interactive dashboard lives in package tui. The components here
// follow a "print once and exit" pattern for commands such as status,
// otp, verify and scan:
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, failure or warning box with ordered details
//   - Printer: writes components and lock server errors to a writer
//
// Failures from the lock API are rendered with lockapi.ShortMessage as
// the error line and the lockapi.TroubleshootingHint bullets in a nested
// box.
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Door status", "lockpanel status", ui.Param{Key: "Server", Value: url})
//	status, err := client.GetStatus(ctx)
//	if err != nil {
//	    p.PrintLockError("Status request failed", err)
//	    return err
//	}
//	p.PrintStatus(status)
//
// # Logging Integration
//
// zap logging is silent unless LOCKPANEL_LOG_LEVEL is set, so the styled
// output is displayed cleanly.
package ui
