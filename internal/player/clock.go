package player

import (
	"sync"
	"time"
)

// Clock has the Player's surface but no audio device: position follows the
// wall clock from the moment a Source starts. It backs --no-audio runs and
// tests.
type Clock struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	length  time.Duration
	playing bool
	level   volume
	closed  bool
}

// NewClock returns a Clock reading time from now, or time.Now when nil.
func NewClock(now func() time.Time, initialVolume float64) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, level: newVolume(initialVolume)}
}

// Play starts timing src.
func (c *Clock) Play(src *Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.started = c.now()
	c.length = src.Duration()
	c.playing = true
	return nil
}

// Position returns the time since Play, capped at the source length.
func (c *Clock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return 0
	}
	return min(c.now().Sub(c.started), c.length)
}

// Drained reports whether the source length has elapsed.
func (c *Clock) Drained() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.playing || c.now().Sub(c.started) >= c.length
}

func (c *Clock) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level.level
}

func (c *Clock) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level.muted
}

func (c *Clock) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level.set(v)
}

func (c *Clock) AdjustVolume(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level.set(c.level.level + delta)
}

func (c *Clock) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level.muted = !c.level.muted
}

func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.playing = false
}
