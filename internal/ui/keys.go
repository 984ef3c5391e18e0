package ui

import tea "github.com/charmbracelet/bubbletea"

// volumeStep is the change applied by one volume key press.
const volumeStep = 0.05

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c", "delete":
		return true
	}
	return false
}

// volumeDelta reports the volume change bound to msg, if any.
func volumeDelta(msg tea.KeyMsg) (float64, bool) {
	switch msg.String() {
	case "[", "-":
		return -volumeStep, true
	case "]", "+", "=":
		return volumeStep, true
	}
	return 0, false
}

func helpText() string {
	return "[/] volume  enter mute  v view  q quit"
}
