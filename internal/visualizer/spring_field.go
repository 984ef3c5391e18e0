package visualizer

import (
	"time"

	"github.com/charmbracelet/harmonica"
)

// springField eases a line of values towards new targets with one damped
// spring per cell.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

// newSpringField advances the springs by frame on every follow.
func newSpringField(frame time.Duration, frequency, damping float64) springField {
	return springField{spring: harmonica.NewSpring(frame.Seconds(), frequency, damping)}
}

// resize starts over from rest when the line length changes.
func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

// follow moves every cell towards targets and overwrites targets with the
// eased values.
func (s *springField) follow(targets []float64) {
	s.resize(len(targets))
	for i, t := range targets {
		s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], t)
		targets[i] = s.pos[i]
	}
}
