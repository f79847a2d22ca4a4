package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/muurk/lockpanel/internal/panel"
)

const (
	// pulseFrameInterval is the time between unlock badge frames
	pulseFrameInterval = 120 * time.Millisecond

	// MediaDebounce is the minimum time between two media unlocks
	MediaDebounce = time.Second
)

// dashboardKeyMap defines key bindings for the dashboard
type dashboardKeyMap struct {
	Submit    key.Binding
	Unlock    key.Binding
	Toggle    key.Binding
	ShowOTP   key.Binding
	Media     key.Binding
	Backspace key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Unlock, k.Toggle, k.ShowOTP, k.Media, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Backspace},
		{k.Unlock, k.Toggle, k.Media},
		{k.ShowOTP, k.Quit},
	}
}

// DashboardModel is the panel's terminal view
type DashboardModel struct {
	Server string
	Digits int

	// Slot state
	OTP              string
	Remaining        string
	BluetoothState   string
	BluetoothOff     bool
	DoorKnown        bool
	DoorLocked       bool
	CueActive        bool
	Pulsing          bool
	PulseFrame       int
	SubmitDisabled   bool
	Result           panel.ResultMessage
	HasResult        bool
	pulseSeq         int
	lastInputMessage string

	Input   textinput.Model
	Spinner spinner.Model
	Help    help.Model
	Keys    dashboardKeyMap

	ctrl  Controller
	media *rate.Limiter
	now   func() time.Time

	Width  int
	Height int
}

// NewDashboardModel creates the dashboard for a passcode of digits digits
func NewDashboardModel(server string, digits int, ctrl Controller) DashboardModel {
	if digits <= 0 {
		digits = panel.DefaultPasscodeDigits
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = strings.Repeat("0", digits)
	input.CharLimit = digits
	input.Width = digits + 1
	input.Prompt = "> "
	input.Focus()

	keys := dashboardKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "verify"),
		),
		Unlock: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bt unlock"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle bt"),
		),
		ShowOTP: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "show otp"),
		),
		Media: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "media unlock"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "delete digit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return DashboardModel{
		Server:     server,
		Digits:     digits,
		OTP:        "----",
		PulseFrame: -1,
		Input:      input,
		Spinner:    s,
		Help:       help.New(),
		Keys:       keys,
		ctrl:       ctrl,
		media:      rate.NewLimiter(rate.Every(MediaDebounce), 1),
		now:        time.Now,
	}
}

// Init starts the cursor blink
func (m DashboardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles slot writes, key presses and animation ticks
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case otpMsg:
		m.OTP = string(msg)
	case remainingMsg:
		m.Remaining = string(msg)
	case bluetoothStateMsg:
		m.BluetoothState = string(msg)
	case bluetoothOffMsg:
		m.BluetoothOff = bool(msg)
	case doorMsg:
		m.DoorKnown = true
		m.DoorLocked = bool(msg)
	case cueActiveMsg:
		m.CueActive = bool(msg)
	case cuePulseMsg:
		return m.setPulse(bool(msg))
	case cueReflowMsg:
		// Drop ticks of the running animation so the next pulse starts over
		m.pulseSeq++
		m.PulseFrame = -1
	case pulseTickMsg:
		return m.advancePulse(msg)
	case submitDisabledMsg:
		wasDisabled := m.SubmitDisabled
		m.SubmitDisabled = bool(msg)
		if m.SubmitDisabled && !wasDisabled {
			return m, m.Spinner.Tick
		}
	case resultMsg:
		m.Result = panel.ResultMessage(msg)
		m.HasResult = true

	case spinner.TickMsg:
		if !m.SubmitDisabled {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m DashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Submit):
		if m.SubmitDisabled {
			return m, nil
		}
		input := m.passcodeInput()
		m.lastInputMessage = ""
		if ok, message := input.Validity(); !ok {
			m.lastInputMessage = message
		}
		return m, m.control(func(c Controller) { c.Submit(input) })

	case key.Matches(msg, m.Keys.Unlock):
		if m.BluetoothOff {
			return m, nil
		}
		return m, m.control(Controller.UnlockBluetooth)

	case key.Matches(msg, m.Keys.Toggle):
		return m, m.control(Controller.ToggleBluetooth)

	case key.Matches(msg, m.Keys.ShowOTP):
		return m, m.control(Controller.ShowCurrentOTP)

	case key.Matches(msg, m.Keys.Media):
		if !m.media.AllowN(m.now(), 1) {
			return m, nil
		}
		return m, m.control(Controller.MediaUnlock)
	}

	// Only digits and editing keys reach the passcode field
	if msg.Type == tea.KeyRunes && !allDigits(msg.Runes) {
		return m, nil
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	m.lastInputMessage = ""
	return m, cmd
}

// control runs an action off the update loop. The panel may be blocked
// sending a slot write to this program while its task queue is full.
func (m DashboardModel) control(action func(Controller)) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		action(ctrl)
		return nil
	}
}

// passcodeInput snapshots the passcode field
func (m DashboardModel) passcodeInput() panel.PasscodeInput {
	return panel.StaticInput{Text: m.Input.Value(), Digits: m.Digits}
}

func (m DashboardModel) setPulse(on bool) (tea.Model, tea.Cmd) {
	m.Pulsing = on
	if !on {
		m.PulseFrame = -1
		return m, nil
	}
	m.pulseSeq++
	m.PulseFrame = 0
	return m, pulseTick(m.pulseSeq)
}

func (m DashboardModel) advancePulse(msg pulseTickMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.pulseSeq || !m.Pulsing {
		return m, nil
	}
	m.PulseFrame = (m.PulseFrame + 1) % len(pulseColors)
	return m, pulseTick(m.pulseSeq)
}

func pulseTick(seq int) tea.Cmd {
	return tea.Tick(pulseFrameInterval, func(time.Time) tea.Msg {
		return pulseTickMsg{seq: seq}
	})
}

func allDigits(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(runes) > 0
}

// View renders the dashboard
func (m DashboardModel) View() string {
	return RenderApplicationContainer(m.Server, m.renderContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DashboardModel) renderContent() string {
	var b strings.Builder

	otp := lipgloss.JoinHorizontal(lipgloss.Center,
		OTPStyle.Render(m.OTP),
		"  ",
		lipgloss.NewStyle().Foreground(SubtleColor).Render(m.Remaining),
	)
	b.WriteString(otp)
	b.WriteString("\n\n")

	b.WriteString(LabelStyle.Render("Door"))
	if m.DoorKnown {
		b.WriteString(RenderDoor(m.DoorLocked))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(SubtleColor).Render("…"))
	}
	if m.CueActive {
		b.WriteString("  ")
		b.WriteString(RenderBadge(m.PulseFrame))
	}
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render("Bluetooth"))
	b.WriteString(ValueStyle.Render(m.BluetoothState))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render("BT unlock"))
	if m.BluetoothOff {
		b.WriteString(DisabledStyle.Render("b"))
	} else {
		b.WriteString(ValueStyle.Render("b"))
	}
	b.WriteString("\n\n")

	b.WriteString(LabelStyle.Render("Passcode"))
	b.WriteString(m.Input.View())
	if m.SubmitDisabled {
		b.WriteString(" ")
		b.WriteString(m.Spinner.View())
	}
	b.WriteString("\n")
	if m.lastInputMessage != "" {
		b.WriteString(InputErrorStyle.Render(m.lastInputMessage))
		b.WriteString("\n")
	}

	if m.HasResult {
		b.WriteString("\n")
		b.WriteString(severityStyle(m.Result.Severity).Render(m.Result.Text))
	}

	return b.String()
}
