package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lockpanel/internal/panel"
	"github.com/muurk/lockpanel/internal/version"
)

// AppName is shown in the header
const AppName = "LOCKPANEL"

// AppVersion returns the application version
func AppVersion() string {
	return version.Version
}

// MinTerminalWidth is the narrowest layout the dashboard supports
const MinTerminalWidth = 48

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	AccentColor    = lipgloss.Color("#FF8B94") // Pink
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF4040") // Red

	TextColor   = lipgloss.Color("#FFFFFF")
	SubtleColor = lipgloss.Color("#626262")
	BorderColor = lipgloss.Color("#7D56F4")
)

// pulseColors are the unlock badge frames, brightest first
var pulseColors = []lipgloss.Color{
	"#43BF6D", "#5FD184", "#7DE39B", "#9BF5B2", "#7DE39B", "#5FD184",
}

var (
	LabelStyle = lipgloss.NewStyle().
			Width(14).
			Foreground(SubtleColor)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	OTPStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor)

	LockedStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	UnlockedStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	DisabledStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Strikethrough(true)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Bold(true).
			Padding(0, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	InputErrorStyle = lipgloss.NewStyle().
			Foreground(WarningColor)
)

// severityStyle colors a result message
func severityStyle(s panel.Severity) lipgloss.Style {
	switch s {
	case panel.SeveritySuccess:
		return lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	case panel.SeverityError:
		return lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(TextColor)
	}
}

// RenderDoor renders the door label in its locked or unlocked variant
func RenderDoor(locked bool) string {
	if locked {
		return LockedStyle.Render(panel.DoorLabel(true))
	}
	return UnlockedStyle.Render(panel.DoorLabel(false))
}

// RenderBadge renders the unlock badge at a pulse frame. A frame outside
// the animation renders the resting color.
func RenderBadge(frame int) string {
	color := pulseColors[0]
	if frame >= 0 && frame < len(pulseColors) {
		color = pulseColors[frame]
	}
	return BadgeStyle.Background(color).Render("UNLOCKED")
}

// BuildHeaderContent creates the header line
func BuildHeaderContent(server string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(server)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps content in the bordered full-screen
// frame with the header on top and help text at the bottom.
func RenderApplicationContainer(server, content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}

	inner := terminalWidth - 4

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(inner).
		Padding(0, 1).
		Render(BuildHeaderContent(server))

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(inner).
		Padding(0, 1).
		Foreground(SubtleColor).
		Render(footerText)

	body := lipgloss.NewStyle().
		Width(inner).
		Padding(1, 2).
		Render(content)

	frame := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2)
	if terminalHeight > 2 {
		frame = frame.Height(terminalHeight - 2).AlignVertical(lipgloss.Top)
	}

	return frame.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}
