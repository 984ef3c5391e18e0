// Package ui is the terminal front end: it shows the spectrogram row that
// matches the playback position and handles volume and quit keys.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/scalo/internal/util"
	"github.com/olivier-w/scalo/internal/visualizer"
)

// Lines around the visualizer: header, track, progress, status, help and
// spacing.
const chromeLines = 10

// Controls adjusts the audio output. *player.Player and *player.Clock
// implement it.
type Controls interface {
	Volume() float64
	Muted() bool
	AdjustVolume(delta float64)
	ToggleMute()
}

// Stats is the background state shown in the status line.
type Stats struct {
	QueueLen     int
	PollFailures int64
}

// Model is the Bubbletea model for the scalo TUI.
type Model struct {
	controls Controls
	stats    func() Stats
	source   string

	spinner  spinner.Model
	progress progress.Model
	modes    []visualizer.Visualizer
	mode     int

	waiting bool
	track   string
	title   string
	length  time.Duration
	elapsed time.Duration
	tracks  int

	row     int
	rows    int
	data    []float32
	hi, lo  float32
	volume  float64
	muted   bool
	current Stats

	width    int
	height   int
	quitting bool
	err      error
}

// New creates a Model. stats may be nil.
func New(controls Controls, stats func() Stats, source string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	if stats == nil {
		stats = func() Stats { return Stats{} }
	}

	return Model{
		controls: controls,
		stats:    stats,
		source:   source,
		spinner:  s,
		progress: p,
		modes:    visualizer.Modes(),
		waiting:  true,
		volume:   controls.Volume(),
		muted:    controls.Muted(),
	}
}

// Err returns the pipeline error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd(), tea.SetWindowTitle("scalo"))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isQuit(msg) {
			m.quitting = true
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		if delta, ok := volumeDelta(msg); ok {
			m.controls.AdjustVolume(delta)
			m.volume = m.controls.Volume()
			return m, nil
		}
		switch msg.String() {
		case "enter":
			m.controls.ToggleMute()
			m.muted = m.controls.Muted()
		case "v":
			m.mode = (m.mode + 1) % len(m.modes)
			m.redraw()
		}
		return m, nil

	case trackStartedMsg:
		m.waiting = false
		m.track = msg.name
		m.title = msg.title
		m.length = msg.length
		m.elapsed = 0
		m.tracks++
		return m, tea.SetWindowTitle(windowTitle(m.displayName()))

	case frameMsg:
		m.row = msg.Row
		m.rows = msg.Height
		m.data = msg.Data
		m.hi, m.lo = msg.Max, msg.Min
		m.elapsed = msg.Elapsed
		if msg.Length > 0 {
			m.length = msg.Length
		}
		m.redraw()
		return m, nil

	case tickMsg:
		m.current = m.stats()
		m.volume = m.controls.Volume()
		m.muted = m.controls.Muted()
		return m, tickCmd()

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PipelineDoneMsg:
		m.err = msg.Err
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-24, 10), 80)
		m.redraw()
		return m, nil
	}

	return m, nil
}

// redraw feeds the current row to the active visualizer.
func (m *Model) redraw() {
	if len(m.data) == 0 || m.hi == m.lo {
		return
	}
	w, h := m.visSize()
	m.modes[m.mode].Update(m.data, m.hi, m.lo, w, h)
}

func (m Model) visSize() (int, int) {
	w := m.width - 4
	if w < 10 {
		w = 60
	}
	h := m.height - chromeLines
	if h < 3 {
		h = 12
	}
	return w, h
}

func (m Model) displayName() string {
	if m.title != "" {
		return m.title
	}
	return m.track
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 64
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + headerStyle.Render("scalo") + "  " + subtitleStyle.Render(m.source) + "\n")
	b.WriteString("\n")

	if m.waiting {
		b.WriteString("  " + m.spinner.View() + " " + statusStyle.Render("Waiting for the first segment...") + "\n")
		b.WriteString("\n")
		b.WriteString("  " + helpStyle.Render(helpText()) + "\n")
		return b.String()
	}

	name := m.displayName()
	if m.title != "" && m.title != m.track {
		name += "  " + subtitleStyle.Render(m.track)
	}
	b.WriteString("  " + titleStyle.Render(name) + "\n")
	b.WriteString("\n")

	for _, line := range strings.Split(m.modes[m.mode].View(), "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	ratio := 0.0
	if m.length > 0 {
		ratio = min(max(m.elapsed.Seconds()/m.length.Seconds(), 0), 1)
	}
	elapsed := timeStyle.Render(util.FormatDuration(m.elapsed))
	length := timeStyle.Render(util.FormatDuration(m.length))
	b.WriteString(fmt.Sprintf("  %s %s %s\n", elapsed, m.progress.ViewAs(ratio), length))
	b.WriteString("\n")

	left := fmt.Sprintf("▶  track %d  row %d/%d  %s  %s", m.tracks, m.row, m.rows, m.modes[m.mode].Name(), queueSummary(m.current))
	right := "vol " + util.FormatVolume(m.volume, m.muted)
	b.WriteString("  " + statusLine(left, right, w) + "\n")
	if m.err != nil {
		b.WriteString("  " + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString("  " + helpStyle.Render(helpText()) + "\n")

	return b.String()
}

func windowTitle(title string) string {
	return "▶ " + title + " - scalo"
}
