package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/scalo/internal/pipeline"
)

type tickMsg time.Time

type trackStartedMsg struct {
	name   string
	title  string
	length time.Duration
}

type frameMsg pipeline.Frame

// PipelineDoneMsg tells the model that no more tracks will arrive. Err is
// nil when the pipeline stopped because of a quit.
type PipelineDoneMsg struct {
	Err error
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
