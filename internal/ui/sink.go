package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/scalo/internal/pipeline"
)

// ProgramSink forwards renderer output to a running tea.Program. Frames for
// the row already on screen are dropped.
type ProgramSink struct {
	send func(tea.Msg)

	mu      sync.Mutex
	lastRow int
}

// NewProgramSink returns a sink sending to p.
func NewProgramSink(p *tea.Program) *ProgramSink {
	return newSink(p.Send)
}

func newSink(send func(tea.Msg)) *ProgramSink {
	return &ProgramSink{send: send, lastRow: -1}
}

func (s *ProgramSink) TrackStarted(item pipeline.Item) {
	s.mu.Lock()
	s.lastRow = -1
	s.mu.Unlock()

	msg := trackStartedMsg{name: item.Name}
	if item.Source != nil {
		msg.title = item.Source.Tag.Title
		msg.length = item.Source.Duration()
	}
	s.send(msg)
}

func (s *ProgramSink) Render(f pipeline.Frame) {
	s.mu.Lock()
	if f.Row == s.lastRow {
		s.mu.Unlock()
		return
	}
	s.lastRow = f.Row
	s.mu.Unlock()
	s.send(frameMsg(f))
}
