package finder

import "github.com/charmbracelet/lipgloss"

var (
	colorText    = lipgloss.Color("#e0def4")
	colorSubtext = lipgloss.Color("#908caa")
	colorOverlay = lipgloss.Color("#6e6a86")
	colorAccent  = lipgloss.Color("#c4a7e7")
	colorMatch   = lipgloss.Color("#f6c177")
	colorRed     = lipgloss.Color("#eb6f92")
)

var (
	appStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(1, 2)

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorOverlay).
			Padding(0, 1).
			MarginBottom(1)

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedRowStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				BorderStyle(lipgloss.ThickBorder()).
				BorderLeft(true).
				BorderForeground(colorAccent).
				Bold(true)

	kindStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Width(9)

	matchStyle = lipgloss.NewStyle().
			Foreground(colorMatch).
			Underline(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			MarginTop(1)
)
