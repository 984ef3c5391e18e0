// Package player decodes HLS audio segments and plays them.
package player

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	reader io.Reader
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   playbackSampleRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// ErrClosed is returned by Play after Close.
var ErrClosed = errors.New("player closed")

// Player plays Sources one at a time on the system audio device.
type Player struct {
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	counter   *countingReader
	length    int64
	level     volume
	mu        sync.Mutex
	closed    bool
}

// New opens the audio device.
func New(initialVolume float64) (*Player, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, err
	}
	return &Player{otoCtx: ctx, level: newVolume(initialVolume)}, nil
}

// Play stops whatever is playing and starts src from its beginning.
func (p *Player) Play(src *Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	p.stopLocked()
	p.counter = &countingReader{reader: src.NewReader()}
	p.length = src.PCMLen()
	p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.level.effective())
	p.otoPlayer.Play()
	return nil
}

func (p *Player) stopLocked() {
	if p.otoPlayer == nil {
		return
	}
	p.otoPlayer.Pause()
	_ = p.otoPlayer.Close()
	p.otoPlayer = nil
}

// Position returns how much of the current source has been heard: bytes
// handed to the device minus what is still buffered there.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.otoPlayer == nil {
		return 0
	}
	heard := p.counter.Pos() - int64(p.otoPlayer.BufferedSize())
	return pcmDuration(max(heard, 0))
}

// Drained reports whether the current source has been read to the end and
// the device has finished playing it. It is true when nothing was played.
func (p *Player) Drained() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.otoPlayer == nil {
		return true
	}
	return p.counter.Pos() >= p.length && !p.otoPlayer.IsPlaying()
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level.level
}

// Muted reports whether output is muted.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level.muted
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level.set(v)
	p.applyLocked()
}

// AdjustVolume adjusts volume by delta.
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level.set(p.level.level + delta)
	p.applyLocked()
}

// ToggleMute silences or restores output without losing the volume level.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level.muted = !p.level.muted
	p.applyLocked()
}

func (p *Player) applyLocked() {
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(p.level.effective())
	}
}

// Close stops playback. The shared device context stays open for the life
// of the process.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.stopLocked()
}

// volume is a level in [0, 1] plus a mute switch.
type volume struct {
	level float64
	muted bool
}

func newVolume(v float64) volume {
	var vol volume
	vol.set(v)
	return vol
}

func (v *volume) set(level float64) {
	v.level = min(max(level, 0), 1)
}

func (v volume) effective() float64 {
	if v.muted {
		return 0
	}
	return v.level
}
