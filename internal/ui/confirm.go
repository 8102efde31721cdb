package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box on out and asks a yes/no question, reading
// the answer from in. Anything but "y" or "yes" declines, including EOF.
func (p *Printer) Confirm(in io.Reader, title string, details []string, question string) bool {
	var lines []string
	lines = append(lines, WarningTitleStyle.Render(WarningMarker+"  "+title))
	if len(details) > 0 {
		lines = append(lines, "")
		for _, d := range details {
			lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("• "+d))
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(p.width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	p.Println(box)
	_, _ = fmt.Fprint(p.out, WarningTitleStyle.Render(question+" [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		_, _ = fmt.Fprintln(p.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
