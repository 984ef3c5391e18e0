package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/olivier-w/scalo/internal/hls"
	"github.com/olivier-w/scalo/internal/player"
	"github.com/olivier-w/scalo/internal/wavelet"
)

func TestRowIndex(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		height  int
		want    int
	}{
		{0, 64, 0},
		{-time.Second, 64, 0},
		{10 * time.Millisecond, 64, 0},
		{16 * time.Millisecond, 64, 1},
		{500 * time.Millisecond, 64, 32},
		{time.Second, 64, 0},
		{1250 * time.Millisecond, 64, 16},
		{0, 1, 0},
		{3 * time.Second, 1, 0},
	}
	for _, tt := range tests {
		if got := RowIndex(tt.elapsed, tt.height); got != tt.want {
			t.Fatalf("RowIndex(%v, %d) = %d, want %d", tt.elapsed, tt.height, got, tt.want)
		}
	}
}

func silentSource(t *testing.T, name string, d time.Duration) *player.Source {
	t.Helper()
	n := int(d.Seconds() * 48000)
	src, err := player.SourceFromSamples(name, make([]float32, max(n, 1)), 48000)
	if err != nil {
		t.Fatalf("SourceFromSamples() error = %v", err)
	}
	return src
}

// scriptSegments hands out a fixed list of segments, then either fails with
// err or blocks until ctx ends.
type scriptSegments struct {
	t     *testing.T
	mu    sync.Mutex
	names []string
	durs  []float32
	err   error
	pulls int
}

func (s *scriptSegments) Next(ctx context.Context) (hls.Segment, error) {
	s.mu.Lock()
	i := s.pulls
	if i < len(s.names) {
		s.pulls++
		name, dur := s.names[i], s.durs[i]
		s.mu.Unlock()
		return hls.Segment{
			Track:  hls.Track{Name: name, Duration: dur},
			Source: silentSource(s.t, name, 20*time.Millisecond),
		}, nil
	}
	s.mu.Unlock()
	if s.err != nil {
		return hls.Segment{}, s.err
	}
	<-ctx.Done()
	return hls.Segment{}, ctx.Err()
}

func (s *scriptSegments) pulled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls
}

// endlessSegments never runs out.
type endlessSegments struct{ scriptSegments }

func (s *endlessSegments) Next(ctx context.Context) (hls.Segment, error) {
	s.mu.Lock()
	s.pulls++
	n := s.pulls
	s.mu.Unlock()
	name := fmt.Sprintf("seg%d", n)
	return hls.Segment{
		Track:  hls.Track{Name: name, Duration: 6},
		Source: silentSource(s.t, name, 10*time.Millisecond),
	}, nil
}

type recordingEngine struct {
	mu        sync.Mutex
	durations []float32
}

func (e *recordingEngine) Transform(signal []float32, bandSpacing, duration float32, width, height int) *wavelet.Spectrogram {
	e.mu.Lock()
	e.durations = append(e.durations, duration)
	e.mu.Unlock()
	s := wavelet.NewSpectrogram(width, height)
	for i := range height {
		s.Row(i)[0] = float32(i)
	}
	return s
}

func testOptions() CoordinatorOptions {
	return CoordinatorOptions{Width: 8, Height: 4, BandSpacing: 10, Lookahead: 1}
}

func TestCoordinatorDeliversInOrderThenFails(t *testing.T) {
	stop := errors.New("segment fetch failed")
	segs := &scriptSegments{t: t, names: []string{"A", "B", "C"}, durs: []float32{6, 0, 4.5}, err: stop}
	eng := &recordingEngine{}
	var seen []string
	opts := testOptions()
	opts.OnItem = func(it Item) { seen = append(seen, it.Name) }
	c := NewCoordinator(segs, eng, opts, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Run(context.Background()) }()

	var got []string
	for it := range c.Items() {
		got = append(got, it.Name)
		if it.Spectrogram.Width != 8 || it.Spectrogram.Height != 4 {
			t.Fatalf("spectrogram %dx%d, want 8x4", it.Spectrogram.Width, it.Spectrogram.Height)
		}
	}
	if fmt.Sprint(got) != "[A B C]" {
		t.Fatalf("items = %v, want [A B C]", got)
	}
	if fmt.Sprint(seen) != "[A B C]" {
		t.Fatalf("OnItem saw %v", seen)
	}
	if err := <-errc; !errors.Is(err, stop) {
		t.Fatalf("Run() = %v, want %v", err, stop)
	}
	if !errors.Is(c.Err(), stop) {
		t.Fatalf("Err() = %v", c.Err())
	}
	// Zero EXTINF falls back to the nominal duration.
	if fmt.Sprint(eng.durations) != "[6 6 4.5]" {
		t.Fatalf("durations = %v, want [6 6 4.5]", eng.durations)
	}
}

func TestCoordinatorRejectsEmptySegment(t *testing.T) {
	segs := &emptySegments{}
	c := NewCoordinator(segs, &recordingEngine{}, testOptions(), nil)
	if err := c.Run(context.Background()); !errors.Is(err, ErrEmptySegment) {
		t.Fatalf("Run() = %v, want ErrEmptySegment", err)
	}
	if _, ok := <-c.Items(); ok {
		t.Fatal("Items() should be closed")
	}
}

type emptySegments struct{}

func (emptySegments) Next(context.Context) (hls.Segment, error) {
	return hls.Segment{Track: hls.Track{Name: "hollow"}, Source: &player.Source{}}, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// With no lookahead the coordinator pulls the next segment only after the
// renderer has taken the previous item.
func TestCoordinatorLookaheadZeroIsSynchronous(t *testing.T) {
	segs := &endlessSegments{scriptSegments{t: t}}
	opts := testOptions()
	opts.Lookahead = 0
	c := NewCoordinator(segs, &recordingEngine{}, opts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	defer func() {
		cancel()
		_ = c.Wait(context.Background())
	}()

	waitFor(t, "first pull", func() bool { return segs.pulled() >= 1 })
	time.Sleep(30 * time.Millisecond)
	if n := segs.pulled(); n != 1 {
		t.Fatalf("pulled %d segments before hand-off, want 1", n)
	}

	<-c.Items()
	waitFor(t, "second pull", func() bool { return segs.pulled() >= 2 })
	time.Sleep(30 * time.Millisecond)
	if n := segs.pulled(); n != 2 {
		t.Fatalf("pulled %d segments after one hand-off, want 2", n)
	}
}

// With one slot of lookahead two finished items wait unclaimed: one in the
// channel and one in the blocked send.
func TestCoordinatorLookaheadOneOverlaps(t *testing.T) {
	segs := &endlessSegments{scriptSegments{t: t}}
	c := NewCoordinator(segs, &recordingEngine{}, testOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	defer func() {
		cancel()
		_ = c.Wait(context.Background())
	}()

	waitFor(t, "second pull", func() bool { return segs.pulled() >= 2 })
	time.Sleep(30 * time.Millisecond)
	if n := segs.pulled(); n != 2 {
		t.Fatalf("pulled %d segments with nothing consumed, want 2", n)
	}
}

func TestCoordinatorStopsOnCancel(t *testing.T) {
	segs := &scriptSegments{t: t, names: []string{"A"}, durs: []float32{6}}
	c := NewCoordinator(segs, &recordingEngine{}, testOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	<-c.Items()
	cancel()

	wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
	defer wcancel()
	if err := c.Wait(wctx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if c.Err() != nil {
		t.Fatalf("Err() = %v after cancel, want nil", c.Err())
	}
	if _, ok := <-c.Items(); ok {
		t.Fatal("Items() should be closed")
	}
}

// fakeTime is advanced only by the renderer's sleeps.
type fakeTime struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeTime) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeTime) sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

type fakePlayback struct {
	ft      *fakeTime
	started time.Time
	length  time.Duration
	played  []string
	playErr error
}

func (p *fakePlayback) Play(src *player.Source) error {
	if p.playErr != nil {
		return p.playErr
	}
	p.started = p.ft.now()
	p.length = src.Duration()
	p.played = append(p.played, src.Name)
	return nil
}

func (p *fakePlayback) Position() time.Duration {
	return min(p.ft.now().Sub(p.started), p.length)
}

func (p *fakePlayback) Drained() bool {
	return p.ft.now().Sub(p.started) >= p.length
}

type recordingSink struct {
	mu     sync.Mutex
	tracks []string
	frames []Frame
}

func (s *recordingSink) TrackStarted(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, item.Name)
}

func (s *recordingSink) Render(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func newTestRenderer(pb *fakePlayback) *Renderer {
	r := NewRenderer(pb, 10*time.Millisecond, nil)
	r.now = pb.ft.now
	r.sleep = pb.ft.sleep
	return r
}

func testItem(t *testing.T, name string, d time.Duration, height int) Item {
	sg := wavelet.NewSpectrogram(4, height)
	for i := range height {
		for j := range 4 {
			sg.Row(i)[j] = float32(i)
		}
	}
	return Item{Name: name, Source: silentSource(t, name, d), Spectrogram: sg, Duration: 6}
}

func TestRendererFollowsPlayback(t *testing.T) {
	ft := &fakeTime{t: time.Unix(0, 0)}
	pb := &fakePlayback{ft: ft}
	sink := &recordingSink{}

	items := make(chan Item, 2)
	items <- testItem(t, "A", 100*time.Millisecond, 64)
	items <- testItem(t, "B", 50*time.Millisecond, 64)
	close(items)

	if err := newTestRenderer(pb).Run(context.Background(), items, sink); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if fmt.Sprint(pb.played) != "[A B]" || fmt.Sprint(sink.tracks) != "[A B]" {
		t.Fatalf("played %v, sink tracks %v", pb.played, sink.tracks)
	}

	var a []Frame
	for _, f := range sink.frames {
		if f.Track == "A" {
			a = append(a, f)
		}
	}
	// One frame per 10 ms tick across 100 ms of audio.
	if len(a) != 10 {
		t.Fatalf("rendered %d frames for A, want 10", len(a))
	}
	for _, f := range a {
		if f.Row != RowIndex(f.Elapsed, 64) {
			t.Fatalf("frame at %v has row %d, want %d", f.Elapsed, f.Row, RowIndex(f.Elapsed, 64))
		}
		if f.Data[0] != float32(f.Row) || len(f.Data) != 4 {
			t.Fatalf("frame data %v does not match row %d", f.Data, f.Row)
		}
		if f.Max != 1 || f.Min != -1 {
			t.Fatalf("bounds = [%v, %v], want [-1, 1]", f.Min, f.Max)
		}
	}
	if a[0].Row != 0 || a[5].Row != 3 {
		t.Fatalf("rows at 0ms and 50ms = %d, %d; want 0, 3", a[0].Row, a[5].Row)
	}
}

func TestRendererStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pb := &fakePlayback{ft: &fakeTime{}}
	if err := newTestRenderer(pb).Run(ctx, make(chan Item), &recordingSink{}); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(pb.played) != 0 {
		t.Fatalf("played %v after cancel", pb.played)
	}
}

func TestRendererReportsPlayError(t *testing.T) {
	pb := &fakePlayback{ft: &fakeTime{}, playErr: player.ErrClosed}
	items := make(chan Item, 1)
	items <- testItem(t, "A", 10*time.Millisecond, 4)
	err := newTestRenderer(pb).Run(context.Background(), items, &recordingSink{})
	if !errors.Is(err, player.ErrClosed) {
		t.Fatalf("Run() = %v, want ErrClosed", err)
	}
}

// slowSink spends delay of fake time in every Render, as a blocked terminal
// would, and can cancel the run after a number of frames.
type slowSink struct {
	recordingSink
	ft       *fakeTime
	delay    time.Duration
	cancelAt int
	cancel   context.CancelFunc
}

func (s *slowSink) Render(f Frame) {
	s.recordingSink.Render(f)
	s.ft.sleep(s.delay)
	s.mu.Lock()
	n := len(s.frames)
	s.mu.Unlock()
	if s.cancel != nil && n == s.cancelAt {
		s.cancel()
	}
}

func runWithDeadline(t *testing.T, ctx context.Context, r *Renderer, items <-chan Item, sink Sink) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx, items, sink) }()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestRendererAdvancesPastSlowSink(t *testing.T) {
	ft := &fakeTime{t: time.Unix(0, 0)}
	pb := &fakePlayback{ft: ft}
	sink := &slowSink{ft: ft, delay: 20 * time.Millisecond}

	items := make(chan Item, 2)
	items <- testItem(t, "A", 50*time.Millisecond, 8)
	items <- testItem(t, "B", 50*time.Millisecond, 8)
	close(items)

	if err := runWithDeadline(t, context.Background(), newTestRenderer(pb), items, sink); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if fmt.Sprint(sink.tracks) != "[A B]" {
		t.Fatalf("sink tracks %v, want [A B]", sink.tracks)
	}
	// Frames at 0, 20 and 40 ms; the track has drained after the third.
	if n := len(sink.frames); n != 6 {
		t.Fatalf("rendered %d frames, want 6", n)
	}
}

func TestRendererCancelWithSlowSink(t *testing.T) {
	ft := &fakeTime{t: time.Unix(0, 0)}
	pb := &fakePlayback{ft: ft}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &slowSink{ft: ft, delay: 20 * time.Millisecond, cancelAt: 3, cancel: cancel}

	items := make(chan Item, 1)
	items <- testItem(t, "A", time.Minute, 8)

	if err := runWithDeadline(t, ctx, newTestRenderer(pb), items, sink); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if n := len(sink.frames); n != 3 {
		t.Fatalf("rendered %d frames after cancel, want 3", n)
	}
}
