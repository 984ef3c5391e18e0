package hls

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/url"

	"github.com/olivier-w/scalo/internal/player"
)

// Decoder turns segment bytes into a playable source.
type Decoder interface {
	Decode(ctx context.Context, name string, data []byte) (*player.Source, error)
}

// Segment is one fetched and decoded track.
type Segment struct {
	Track  Track
	URL    string
	Source *player.Source
}

// SegmentIterator walks a TrackQueue from the front, fetching and decoding
// each track exactly once in queue order.
type SegmentIterator struct {
	base    *url.URL
	tracks  *TrackQueue
	fetcher *Fetcher
	decoder Decoder
	logger  *slog.Logger
	pos     int
}

// NewSegmentIterator returns an iterator resolving track locators against
// playlistURL.
func NewSegmentIterator(playlistURL string, tracks *TrackQueue, fetcher *Fetcher, decoder Decoder, logger *slog.Logger) (*SegmentIterator, error) {
	base, err := url.Parse(playlistURL)
	if err != nil {
		return nil, fmt.Errorf("parsing playlist URL: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SegmentIterator{
		base:    base,
		tracks:  tracks,
		fetcher: fetcher,
		decoder: decoder,
		logger:  logger.With("component", "segments"),
	}, nil
}

// Position is the queue index of the next track to be pulled.
func (it *SegmentIterator) Position() int { return it.pos }

// Resolve returns the absolute URL of a track locator, resolved against the
// playlist URL itself. A bare name lands next to the playlist, not at the
// host root.
func (it *SegmentIterator) Resolve(locator string) (string, error) {
	ref, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parsing segment locator %q: %w", locator, err)
	}
	return it.base.ResolveReference(ref).String(), nil
}

// Next blocks until the queue holds a track at the iterator's position,
// then fetches and decodes it. The position advances once the track is
// taken, so a failed fetch or decode is not retried.
func (it *SegmentIterator) Next(ctx context.Context) (Segment, error) {
	track, err := it.tracks.WaitAt(ctx, it.pos)
	if err != nil {
		return Segment{}, err
	}
	it.pos++

	u, err := it.Resolve(track.Name)
	if err != nil {
		return Segment{}, err
	}
	data, err := it.fetcher.Bytes(ctx, u)
	if err != nil {
		return Segment{}, fmt.Errorf("fetching segment %s: %w", track.Name, err)
	}
	it.logger.Debug("segment fetched", "name", track.Name, "bytes", len(data))

	src, err := it.decoder.Decode(ctx, track.Name, data)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Track: track, URL: u, Source: src}, nil
}

// All yields segments until ctx ends or a pull fails. The failing error is
// yielded once as the final pair.
func (it *SegmentIterator) All(ctx context.Context) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		for {
			seg, err := it.Next(ctx)
			if err != nil {
				if ctx.Err() == nil {
					yield(Segment{}, err)
				}
				return
			}
			if !yield(seg, nil) {
				return
			}
		}
	}
}
