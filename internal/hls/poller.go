package hls

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olivier-w/scalo/internal/queue"
)

// TrackQueue is the ordered, name-deduplicated list of discovered segments
// shared by the Poller and the SegmentIterator.
type TrackQueue = queue.Queue[Track]

// NewTrackQueue returns an empty TrackQueue.
func NewTrackQueue() *TrackQueue {
	return queue.New(func(t Track) string { return t.Name })
}

// DefaultPollInterval is the pause between playlist refreshes.
const DefaultPollInterval = time.Second

// Poller refreshes a media playlist on an interval and appends newly listed
// segments to a TrackQueue in playlist order.
type Poller struct {
	url      string
	fetcher  *Fetcher
	tracks   *TrackQueue
	interval time.Duration
	logger   *slog.Logger

	polls    atomic.Int64
	failures atomic.Int64
	ended    atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller returns a Poller for the playlist at url. A non-positive
// interval selects DefaultPollInterval.
func NewPoller(fetcher *Fetcher, url string, tracks *TrackQueue, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{
		url:      url,
		fetcher:  fetcher,
		tracks:   tracks,
		interval: interval,
		logger:   logger.With("component", "poller"),
	}
}

// Poll performs one fetch, parse and merge. It returns the number of new
// tracks appended.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	p.polls.Add(1)
	doc, err := p.fetcher.Document(ctx, p.url)
	if err != nil {
		return 0, fmt.Errorf("fetching playlist: %w", err)
	}
	m, ok := Parse(doc)
	if !ok {
		return 0, fmt.Errorf("parsing playlist %s: %w", p.url, ErrNotPlaylist)
	}

	added := p.tracks.Append(m.Tracks...)
	if added > 0 {
		p.logger.Debug("tracks queued", "added", added, "queued", p.tracks.Len())
	}
	if m.Ended && !p.ended.Swap(true) {
		p.logger.Info("playlist reports end of stream")
	}
	return added, nil
}

// Run polls until ctx is done. A failed poll is logged and counted; the
// next attempt happens after the usual interval.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("polling playlist", "url", p.url, "interval", p.interval)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			n := p.failures.Add(1)
			p.logger.Warn("poll failed", "err", err, "failures", n)
		}
		timer.Reset(p.interval)
	}
}

// Start runs the poller on its own goroutine. Stop cancels and joins it.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		p.Run(ctx)
	}()
}

// Stop cancels a started poller and waits for it to exit, or for ctx to
// end first, in which case ctx.Err() is returned.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Polls returns how many poll attempts have been made.
func (p *Poller) Polls() int64 { return p.polls.Load() }

// Failures returns how many poll attempts have failed.
func (p *Poller) Failures() int64 { return p.failures.Load() }
