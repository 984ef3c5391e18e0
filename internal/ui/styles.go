package ui

import "github.com/charmbracelet/lipgloss"

// Shades of the player chrome, light terminal first.
var (
	inkStrong = lipgloss.AdaptiveColor{Light: "#1F2430", Dark: "#F2F4F8"}
	inkSoft   = lipgloss.AdaptiveColor{Light: "#5C6370", Dark: "#A9B1BD"}
	inkFaint  = lipgloss.AdaptiveColor{Light: "#9AA0AA", Dark: "#5F6673"}
	accent    = lipgloss.AdaptiveColor{Light: "#2E6FD8", Dark: "#7AA7FF"}
	alarm     = lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF5F5F"}
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(inkStrong)
	subtitleStyle = lipgloss.NewStyle().Foreground(inkSoft)
	timeStyle     = lipgloss.NewStyle().Foreground(inkSoft)
	statusStyle   = lipgloss.NewStyle().Foreground(inkSoft)
	helpStyle     = lipgloss.NewStyle().Foreground(inkFaint)
	errorStyle    = lipgloss.NewStyle().Foreground(alarm)
	spinnerStyle  = lipgloss.NewStyle().Foreground(accent)
)
