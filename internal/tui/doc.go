// Package tui implements the lockpanel terminal dashboard.
//
// The dashboard is a Bubble Tea program that shows the current passcode
// and its countdown, the Bluetooth state, the door state and the unlock
// cue, and takes a passcode for verification. It is one of the panel's
// presentation sinks: the panel loop writes slots, each write becomes a
// tea message delivered with Program.Send, and Update applies it. Key
// presses call back into the panel through the Controller interface.
//
// # Keys
//
//	0-9     type the passcode
//	enter   verify the passcode
//	b       unlock via Bluetooth (disabled while Bluetooth is off)
//	t       toggle Bluetooth
//	s       show the current passcode as a message
//	m       media-key unlock
//	q       quit
//
// # Usage Example
//
//	app := tui.NewApp(tui.Options{ServerURL: url, PasscodeDigits: 4})
//	p := panel.New(client, app.Slots(), panel.DefaultConfig())
//	if err := app.Run(ctx, p); err != nil {
//	    log.Fatal(err)
//	}
package tui
