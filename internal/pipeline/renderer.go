package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olivier-w/scalo/internal/player"
)

// DefaultTick is the render period.
const DefaultTick = 10 * time.Millisecond

// Frame bounds are fixed: rows are shown clamped to [-1, 1].
const (
	FrameMax float32 = 1
	FrameMin float32 = -1
)

// minElapsed keeps row selection away from the degenerate t = 0.
const minElapsed = time.Millisecond

// Playback is the audio clock the renderer follows. *player.Player and
// *player.Clock implement it.
type Playback interface {
	Play(src *player.Source) error
	Position() time.Duration
	Drained() bool
}

// Frame is one rendered row of the current spectrogram.
type Frame struct {
	Track    string
	Row      int
	Height   int
	Data     []float32
	Max, Min float32
	Elapsed  time.Duration
	Length   time.Duration
}

// Sink displays frames.
type Sink interface {
	TrackStarted(item Item)
	Render(f Frame)
}

// RowIndex maps elapsed playback time to a spectrogram row:
// floor(t * height) mod height, with t clamped to at least 1 ms.
func RowIndex(elapsed time.Duration, height int) int {
	t := max(elapsed, minElapsed).Seconds()
	return int(t*float64(height)) % height
}

// Renderer plays items and emits the spectrogram row matching the playback
// position every tick.
type Renderer struct {
	playback Playback
	tick     time.Duration
	logger   *slog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRenderer returns a Renderer. A non-positive tick selects DefaultTick.
func NewRenderer(playback Playback, tick time.Duration, logger *slog.Logger) *Renderer {
	if tick <= 0 {
		tick = DefaultTick
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		playback: playback,
		tick:     tick,
		logger:   logger.With("component", "renderer"),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Run consumes items until the channel closes or ctx ends. Each item plays
// to completion; the next is received only once playback has drained.
func (r *Renderer) Run(ctx context.Context, items <-chan Item, sink Sink) error {
	for {
		var item Item
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case item, ok = <-items:
			if !ok {
				return nil
			}
		}

		if err := r.play(ctx, item, sink); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *Renderer) play(ctx context.Context, item Item, sink Sink) error {
	if err := r.playback.Play(item.Source); err != nil {
		return fmt.Errorf("playing %s: %w", item.Name, err)
	}
	r.logger.Info("playing track", "name", item.Name, "duration", item.Source.Duration())
	sink.TrackStarted(item)

	sg := item.Spectrogram
	length := item.Source.Duration()
	last := r.now()
	for {
		elapsed := r.playback.Position()
		row := RowIndex(elapsed, sg.Height)
		sink.Render(Frame{
			Track:   item.Name,
			Row:     row,
			Height:  sg.Height,
			Data:    sg.Row(row),
			Max:     FrameMax,
			Min:     FrameMin,
			Elapsed: elapsed,
			Length:  length,
		})

		// A sink slower than the tick leaves no time to wait, so the exit
		// conditions are checked after every frame as well.
		if r.done(ctx) {
			return nil
		}
		for r.now().Sub(last) < r.tick {
			r.sleep(r.tick / 2)
			if r.done(ctx) {
				return nil
			}
		}
		last = r.now()
	}
}

// done reports whether the current track has finished or the run is over.
func (r *Renderer) done(ctx context.Context) bool {
	return r.playback.Drained() || ctx.Err() != nil
}
