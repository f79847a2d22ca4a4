package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lockpanel/internal/discovery"
	"github.com/muurk/lockpanel/internal/lockapi"
	"github.com/muurk/lockpanel/internal/panel"
)

// Printer writes UI components to a writer
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer that writes to w, or os.Stdout when w is nil
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Width returns the width components are rendered at
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the rendering width
func (p *Printer) SetWidth(width int) {
	p.width = clampWidth(width)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command banner
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning box
func (p *Printer) PrintWarning(title string, details ...Param) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintFailure prints a failure box with troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintLockError prints a failure box for a lock API error, using its
// short message and troubleshooting hint
func (p *Printer) PrintLockError(title string, err error) {
	summary, tips := Troubleshooting(err)
	r := NewFailureResult(title, fmt.Errorf("%s", lockapi.ShortMessage(err)), tips).SetWidth(p.width)
	if summary != "" {
		r.AddDetail("Details", summary)
	}
	p.Println(r.Render())
}

// PrintStatus prints the door and Bluetooth state
func (p *Printer) PrintStatus(status *lockapi.StatusResponse) {
	door := DoorUnlockedStyle.Render(panel.DoorLabel(false))
	if status.DoorLocked {
		door = DoorLockedStyle.Render(panel.DoorLabel(true))
	}
	p.PrintSuccess("Status received",
		Param{Key: "Door", Value: door},
		Param{Key: "Bluetooth", Value: panel.BluetoothLabel(status.BluetoothEnabled)},
	)
}

// PrintOTP prints the current passcode
func (p *Printer) PrintOTP(otp *lockapi.OTPResponse) {
	details := []Param{
		{Key: "OTP", Value: lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true).Render(otp.OTP)},
		{Key: "Changes in", Value: fmt.Sprintf("%ds", otp.Remaining)},
	}
	if otp.Step > 0 {
		details = append(details, Param{Key: "Rotation", Value: fmt.Sprintf("%ds", otp.Step)})
	}
	p.PrintSuccess("Current passcode", details...)
}

// PrintMessage prints a result message the way the panel classifies it
func (p *Printer) PrintMessage(title string, msg panel.ResultMessage) {
	switch msg.Severity {
	case panel.SeverityError:
		p.PrintFailure(title, fmt.Errorf("%s", msg.Text), nil)
	case panel.SeveritySuccess:
		p.PrintSuccess(title, Param{Key: "Server", Value: msg.Text})
	default:
		p.PrintWarning(title, Param{Key: "Server", Value: msg.Text})
	}
}

// PrintEndpoints prints discovered lock servers
func (p *Printer) PrintEndpoints(endpoints []*discovery.Endpoint) {
	if len(endpoints) == 0 {
		p.PrintWarning("No lock servers found",
			Param{Key: "Service", Value: discovery.LockServiceType + "." + discovery.ServiceDomain},
		)
		return
	}

	r := NewSuccessResult(fmt.Sprintf("Found %d lock server(s)", len(endpoints))).SetWidth(p.width)
	for _, ep := range endpoints {
		name := ep.Instance
		if name == "" {
			name = ep.Host
		}
		r.AddDetail(name, ep.StatusURL())
	}
	p.Println(r.Render())
}

// PrintPorts prints the serial ports available to the bridge
func (p *Printer) PrintPorts(ports []string) {
	if len(ports) == 0 {
		p.PrintWarning("No serial ports found")
		return
	}
	r := NewSuccessResult(fmt.Sprintf("Found %d serial port(s)", len(ports))).SetWidth(p.width)
	for i, port := range ports {
		r.AddDetail(fmt.Sprintf("%d", i+1), port)
	}
	p.Println(r.Render())
}

// Troubleshooting splits a lock API troubleshooting hint into its summary
// and bullet tips
func Troubleshooting(err error) (summary string, tips []string) {
	var lines []string
	for _, line := range strings.Split(lockapi.TroubleshootingHint(err), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || trimmed == "Troubleshooting:":
		case strings.HasPrefix(trimmed, BulletMarker):
			tips = append(tips, strings.TrimSpace(strings.TrimPrefix(trimmed, BulletMarker)))
		default:
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, " "), tips
}
