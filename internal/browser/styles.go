package browser

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/cmtrace/internal/ui"
	"github.com/muurk/cmtrace/internal/version"
)

const appName = "CMTRACE SYMBOLS"

// Layout constants
const (
	defaultWidth  = 80
	defaultHeight = 24
	// rows used by the header, footer and outer border
	chromeHeight = 6
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)

	detailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.SuccessColor).
			Padding(1, 2)

	detailKeyStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Width(10)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(ui.TextColor).
				Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)
)

// renderContainer wraps a screen in the header/footer frame.
func renderContainer(content, footer string, width int) string {
	innerWidth := max(width-4, 0)
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Foreground(ui.TextColor).Bold(true).Render(appName),
		" ",
		statusStyle.Render(version.Version),
	)

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(ui.PrimaryColor).
		Width(innerWidth).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(ui.PrimaryColor).
		Width(innerWidth).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(header),
		lipgloss.NewStyle().Width(innerWidth).Render(content),
		footerStyle.Render(statusStyle.Render(footer)),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.PrimaryColor).
		Render(inner)
}
