package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// statusLine renders left and right aligned to opposite edges of width.
func statusLine(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 2 {
		gap = 2
	}
	return statusStyle.Render(left) + spaces(gap) + statusStyle.Render(right)
}

func queueSummary(s Stats) string {
	text := fmt.Sprintf("queued %d", s.QueueLen)
	if s.PollFailures > 0 {
		text += fmt.Sprintf("  poll failures %d", s.PollFailures)
	}
	return text
}

func spaces(n int) string {
	if n < 0 {
		n = 0
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
