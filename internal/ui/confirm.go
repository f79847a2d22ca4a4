package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm prints a warning box and asks a yes/no question on in. Only "y"
// or "yes" confirms; anything else, including EOF, declines.
func (p *Printer) Confirm(in io.Reader, title string, warnings []string, question string) bool {
	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)), ""}
	for _, w := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   "+BulletMarker+" "+w))
	}
	lines = append(lines, "")

	p.Println(boxStyle(WarningColor, p.width).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprint(p.out, WarningTitleStyle.Render(question+" [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	p.Newline()
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	p.Println(lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}
