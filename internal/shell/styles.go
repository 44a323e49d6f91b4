package shell

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorAccent  = lipgloss.Color("#06B6D4")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#94A3B8")
	colorText    = lipgloss.Color("#F8FAFC")
	colorUserBg  = lipgloss.Color("#1E3A5F")
	colorEchoBg  = lipgloss.Color("#1E293B")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1)

	userBubble = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorUserBg).
			Padding(0, 1)

	echoBubble = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorEchoBg).
			Padding(0, 1)

	errorBubble = lipgloss.NewStyle().
			Foreground(colorError).
			Padding(0, 1)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)
