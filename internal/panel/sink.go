package panel

// TextSlot displays a line of text
type TextSlot interface {
	SetText(text string)
}

// FlagSlot displays a boolean, e.g. a control's disabled state
type FlagSlot interface {
	SetFlag(on bool)
}

// DoorSlot renders the door label in its locked or unlocked variant
type DoorSlot interface {
	SetDoor(locked bool)
}

// CueSlot is the unlock cue. Reflow forces the renderer to settle the
// current pulse state so a pulse set right after it starts from the
// beginning even when one was already running.
type CueSlot interface {
	SetActive(active bool)
	SetPulse(pulse bool)
	Reflow()
}

// MessageSlot displays the latest result message, replacing the previous one
type MessageSlot interface {
	ShowMessage(msg ResultMessage)
}

// PasscodeInput is the passcode field at the moment of submission.
// Validity reports the field's own shape check and its human-readable
// message when the check fails.
type PasscodeInput interface {
	Value() string
	Validity() (valid bool, message string)
}

// Slots is the set of outputs a Panel writes to. Every slot is optional.
type Slots struct {
	OTP                     TextSlot
	Remaining               TextSlot
	BluetoothButtonDisabled FlagSlot
	BluetoothState          TextSlot
	DoorStatus              DoorSlot
	UnlockCue               CueSlot
	SubmitDisabled          FlagSlot
	Result                  MessageSlot
}

// TextFunc adapts a function to TextSlot
type TextFunc func(string)

func (f TextFunc) SetText(text string) { f(text) }

// FlagFunc adapts a function to FlagSlot
type FlagFunc func(bool)

func (f FlagFunc) SetFlag(on bool) { f(on) }

// DoorFunc adapts a function to DoorSlot
type DoorFunc func(bool)

func (f DoorFunc) SetDoor(locked bool) { f(locked) }

// MessageFunc adapts a function to MessageSlot
type MessageFunc func(ResultMessage)

func (f MessageFunc) ShowMessage(msg ResultMessage) { f(msg) }

// DoorLabel returns the label shown for a door state
func DoorLabel(locked bool) string {
	if locked {
		return "Locked"
	}
	return "Unlocked"
}

// BluetoothLabel returns the Bluetooth state label
func BluetoothLabel(enabled bool) string {
	if enabled {
		return "State: Enabled"
	}
	return "State: Disabled"
}

type nopText struct{}

func (nopText) SetText(string) {}

type nopFlag struct{}

func (nopFlag) SetFlag(bool) {}

type nopDoor struct{}

func (nopDoor) SetDoor(bool) {}

type nopCue struct{}

func (nopCue) SetActive(bool) {}
func (nopCue) SetPulse(bool)  {}
func (nopCue) Reflow()        {}

type nopMessage struct{}

func (nopMessage) ShowMessage(ResultMessage) {}

// sink is Slots with every absent slot replaced by a no-op
type sink struct {
	otp            TextSlot
	remaining      TextSlot
	btButtonOff    FlagSlot
	btState        TextSlot
	door           DoorSlot
	cue            CueSlot
	hasCue         bool
	submitDisabled FlagSlot
	result         MessageSlot
}

func bind(s Slots) sink {
	b := sink{
		otp:            nopText{},
		remaining:      nopText{},
		btButtonOff:    nopFlag{},
		btState:        nopText{},
		door:           nopDoor{},
		cue:            nopCue{},
		submitDisabled: nopFlag{},
		result:         nopMessage{},
	}
	if s.OTP != nil {
		b.otp = s.OTP
	}
	if s.Remaining != nil {
		b.remaining = s.Remaining
	}
	if s.BluetoothButtonDisabled != nil {
		b.btButtonOff = s.BluetoothButtonDisabled
	}
	if s.BluetoothState != nil {
		b.btState = s.BluetoothState
	}
	if s.DoorStatus != nil {
		b.door = s.DoorStatus
	}
	if s.UnlockCue != nil {
		b.cue = s.UnlockCue
		b.hasCue = true
	}
	if s.SubmitDisabled != nil {
		b.submitDisabled = s.SubmitDisabled
	}
	if s.Result != nil {
		b.result = s.Result
	}
	return b
}

// Fanout merges several slot sets so each update reaches every present slot.
func Fanout(sets ...Slots) Slots {
	var (
		otp, remaining, btState []TextSlot
		btButton, submit        []FlagSlot
		doors                   []DoorSlot
		cues                    []CueSlot
		results                 []MessageSlot
	)
	for _, s := range sets {
		if s.OTP != nil {
			otp = append(otp, s.OTP)
		}
		if s.Remaining != nil {
			remaining = append(remaining, s.Remaining)
		}
		if s.BluetoothState != nil {
			btState = append(btState, s.BluetoothState)
		}
		if s.BluetoothButtonDisabled != nil {
			btButton = append(btButton, s.BluetoothButtonDisabled)
		}
		if s.SubmitDisabled != nil {
			submit = append(submit, s.SubmitDisabled)
		}
		if s.DoorStatus != nil {
			doors = append(doors, s.DoorStatus)
		}
		if s.UnlockCue != nil {
			cues = append(cues, s.UnlockCue)
		}
		if s.Result != nil {
			results = append(results, s.Result)
		}
	}

	var out Slots
	if len(otp) > 0 {
		out.OTP = textFan(otp)
	}
	if len(remaining) > 0 {
		out.Remaining = textFan(remaining)
	}
	if len(btState) > 0 {
		out.BluetoothState = textFan(btState)
	}
	if len(btButton) > 0 {
		out.BluetoothButtonDisabled = flagFan(btButton)
	}
	if len(submit) > 0 {
		out.SubmitDisabled = flagFan(submit)
	}
	if len(doors) > 0 {
		out.DoorStatus = doorFan(doors)
	}
	if len(cues) > 0 {
		out.UnlockCue = cueFan(cues)
	}
	if len(results) > 0 {
		out.Result = messageFan(results)
	}
	return out
}

type textFan []TextSlot

func (f textFan) SetText(text string) {
	for _, s := range f {
		s.SetText(text)
	}
}

type flagFan []FlagSlot

func (f flagFan) SetFlag(on bool) {
	for _, s := range f {
		s.SetFlag(on)
	}
}

type doorFan []DoorSlot

func (f doorFan) SetDoor(locked bool) {
	for _, s := range f {
		s.SetDoor(locked)
	}
}

type cueFan []CueSlot

func (f cueFan) SetActive(active bool) {
	for _, s := range f {
		s.SetActive(active)
	}
}

func (f cueFan) SetPulse(pulse bool) {
	for _, s := range f {
		s.SetPulse(pulse)
	}
}

func (f cueFan) Reflow() {
	for _, s := range f {
		s.Reflow()
	}
}

type messageFan []MessageSlot

func (f messageFan) ShowMessage(msg ResultMessage) {
	for _, s := range f {
		s.ShowMessage(msg)
	}
}
