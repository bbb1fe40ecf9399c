package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Primary = lipgloss.Color("#22d3ee") // Cyan accent
	Success = lipgloss.Color("#10B981") // Emerald
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Primary)

	StatusStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// Icons
const (
	IconSuccess = "✔"
	IconError   = "✖"
	IconCar     = "🚗"
	IconSignal  = "📡"
)

func PrintError(msg string) {
	fmt.Printf("%s %s\n", ErrorStyle.Render(IconError), msg)
}

func PrintSuccessf(format string, args ...any) {
	fmt.Printf("%s %s\n", SuccessStyle.Render(IconSuccess), fmt.Sprintf(format, args...))
}

func PrintStatus(msg string) {
	fmt.Printf("%s %s\n", StatusStyle.Render(IconSignal), msg)
}
