package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/lockpanel/internal/panel"
)

// Sender delivers a message to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Slot writes from the panel, delivered to the dashboard as messages
type (
	otpMsg            string
	remainingMsg      string
	bluetoothStateMsg string
	bluetoothOffMsg   bool
	doorMsg           bool
	cueActiveMsg      bool
	cuePulseMsg       bool
	cueReflowMsg      struct{}
	submitDisabledMsg bool
	resultMsg         panel.ResultMessage
)

// pulseTickMsg advances the unlock badge animation. seq ties the tick to
// the pulse that scheduled it.
type pulseTickMsg struct {
	seq int
}

// Slots returns a full slot set that forwards every write to s
func Slots(s Sender) panel.Slots {
	return panel.Slots{
		OTP:                     panel.TextFunc(func(v string) { s.Send(otpMsg(v)) }),
		Remaining:               panel.TextFunc(func(v string) { s.Send(remainingMsg(v)) }),
		BluetoothButtonDisabled: panel.FlagFunc(func(v bool) { s.Send(bluetoothOffMsg(v)) }),
		BluetoothState:          panel.TextFunc(func(v string) { s.Send(bluetoothStateMsg(v)) }),
		DoorStatus:              panel.DoorFunc(func(v bool) { s.Send(doorMsg(v)) }),
		UnlockCue:               cueSlot{s},
		SubmitDisabled:          panel.FlagFunc(func(v bool) { s.Send(submitDisabledMsg(v)) }),
		Result:                  panel.MessageFunc(func(v panel.ResultMessage) { s.Send(resultMsg(v)) }),
	}
}

type cueSlot struct {
	s Sender
}

func (c cueSlot) SetActive(active bool) { c.s.Send(cueActiveMsg(active)) }
func (c cueSlot) SetPulse(pulse bool)   { c.s.Send(cuePulseMsg(pulse)) }
func (c cueSlot) Reflow()               { c.s.Send(cueReflowMsg{}) }

// Controller is what the dashboard drives. *panel.Panel implements it.
type Controller interface {
	Submit(input panel.PasscodeInput)
	ShowCurrentOTP()
	UnlockBluetooth()
	ToggleBluetooth()
	MediaUnlock()
}
