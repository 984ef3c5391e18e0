// Package pipeline connects segment retrieval, spectrogram computation and
// playback-synchronised rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/olivier-w/scalo/internal/hls"
	"github.com/olivier-w/scalo/internal/player"
	"github.com/olivier-w/scalo/internal/wavelet"
)

// DefaultNominalDuration is used for the kernel time scale when a track
// carries no usable duration.
const DefaultNominalDuration = 6.0

// ErrEmptySegment is returned when a decoded segment has no samples to
// analyse.
var ErrEmptySegment = errors.New("segment has no samples")

// Item is one track ready for playback: its audio and its spectrogram.
type Item struct {
	Name        string
	Track       hls.Track
	Source      *player.Source
	Spectrogram *wavelet.Spectrogram
	// Duration is the time span, in seconds, the spectrogram was computed
	// for.
	Duration float32
}

// Segments yields decoded segments in order. *hls.SegmentIterator
// implements it.
type Segments interface {
	Next(ctx context.Context) (hls.Segment, error)
}

// Transformer computes spectrograms. *wavelet.Engine implements it.
type Transformer interface {
	Transform(signal []float32, bandSpacing, duration float32, width, height int) *wavelet.Spectrogram
}

// CoordinatorOptions sizes the spectrograms and the hand-off.
type CoordinatorOptions struct {
	Width           int
	Height          int
	BandSpacing     float32
	NominalDuration float32
	// Lookahead is the capacity of the delivery channel. Up to Lookahead+1
	// finished items can wait for the renderer: those buffered plus the one
	// held in a blocked send. With 0 every hand-off is synchronous and the
	// next track is not fetched until the renderer takes the current one.
	Lookahead int
	// OnItem, if set, is called with each item before it is delivered.
	OnItem func(Item)
}

// Coordinator pulls segments, computes their spectrograms and delivers the
// results on Items in segment order.
type Coordinator struct {
	segments Segments
	engine   Transformer
	opts     CoordinatorOptions
	logger   *slog.Logger
	items    chan Item

	mu   sync.Mutex
	err  error
	done chan struct{}
}

// NewCoordinator returns a Coordinator. A non-positive NominalDuration
// selects DefaultNominalDuration; a negative Lookahead is treated as 0.
func NewCoordinator(segments Segments, engine Transformer, opts CoordinatorOptions, logger *slog.Logger) *Coordinator {
	if opts.NominalDuration <= 0 {
		opts.NominalDuration = DefaultNominalDuration
	}
	opts.Lookahead = max(opts.Lookahead, 0)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		segments: segments,
		engine:   engine,
		opts:     opts,
		logger:   logger.With("component", "coordinator"),
		items:    make(chan Item, opts.Lookahead),
	}
}

// Items delivers finished items. It is closed when Run returns.
func (c *Coordinator) Items() <-chan Item { return c.items }

// Err returns the error that stopped Run, if any. Cancellation is not an
// error.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// duration picks the time span for a track's kernel scale.
func (c *Coordinator) duration(seg hls.Segment) float32 {
	if seg.Track.Duration > 0 {
		return seg.Track.Duration
	}
	return c.opts.NominalDuration
}

// Run pulls and delivers items until ctx ends or a pull fails. A failed
// pull ends the stream: the error is recorded and returned, and Items is
// closed. An item being built when ctx ends is dropped.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.items)

	for {
		seg, err := c.segments.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return c.fail(err)
		}
		if seg.Source == nil || len(seg.Source.Samples) == 0 {
			return c.fail(fmt.Errorf("%s: %w", seg.Track.Name, ErrEmptySegment))
		}

		d := c.duration(seg)
		started := time.Now()
		sg := c.engine.Transform(seg.Source.Samples, c.opts.BandSpacing, d, c.opts.Width, c.opts.Height)
		c.logger.Debug("spectrogram computed",
			"name", seg.Track.Name,
			"samples", len(seg.Source.Samples),
			"duration", d,
			"elapsed", time.Since(started))

		item := Item{
			Name:        seg.Track.Name,
			Track:       seg.Track,
			Source:      seg.Source,
			Spectrogram: sg,
			Duration:    d,
		}
		if c.opts.OnItem != nil {
			c.opts.OnItem(item)
		}

		select {
		case c.items <- item:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.logger.Error("segment pipeline stopped", "err", err)
	return err
}

// Start runs the coordinator on its own goroutine.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return
	}
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		_ = c.Run(ctx)
	}()
}

// Wait blocks until a started coordinator has exited or ctx ends.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
