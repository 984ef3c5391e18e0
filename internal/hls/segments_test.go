package hls

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/olivier-w/scalo/internal/player"
)

// recordingDecoder returns a silent source for any input and remembers
// what it was given.
type recordingDecoder struct {
	mu    sync.Mutex
	names []string
	data  []string
	err   error
}

func (d *recordingDecoder) Decode(ctx context.Context, name string, data []byte) (*player.Source, error) {
	d.mu.Lock()
	d.names = append(d.names, name)
	d.data = append(d.data, string(data))
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return player.SourceFromSamples(name, make([]float32, 480), 48000)
}

func segmentServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("bytes of " + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve(t *testing.T) {
	it, err := NewSegmentIterator("https://radio.example/live/master_128.m3u8", NewTrackQueue(), NewFetcher(nil), &recordingDecoder{}, nil)
	if err != nil {
		t.Fatalf("NewSegmentIterator() error = %v", err)
	}
	tests := map[string]string{
		"seg1.aac":                   "https://radio.example/live/seg1.aac",
		"/root.aac":                  "https://radio.example/root.aac",
		"../other/seg.aac":           "https://radio.example/other/seg.aac",
		"https://cdn.example/x.aac":  "https://cdn.example/x.aac",
		"chunk.aac?session=4&part=2": "https://radio.example/live/chunk.aac?session=4&part=2",
	}
	for in, want := range tests {
		got, err := it.Resolve(in)
		if err != nil || got != want {
			t.Fatalf("Resolve(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestNextFetchesInQueueOrder(t *testing.T) {
	srv := segmentServer(t)
	q := NewTrackQueue()
	dec := &recordingDecoder{}
	it, err := NewSegmentIterator(srv.URL+"/live/index.m3u8", q, NewFetcher(srv.Client()), dec, nil)
	if err != nil {
		t.Fatalf("NewSegmentIterator() error = %v", err)
	}

	q.Append(Track{Name: "a.aac", Duration: 6}, Track{Name: "b.aac", Duration: 5})
	for i, want := range []string{"a.aac", "b.aac"} {
		seg, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() #%d error = %v", i, err)
		}
		if seg.Track.Name != want || seg.Source == nil {
			t.Fatalf("Next() #%d = %+v, want %s", i, seg.Track, want)
		}
		if seg.URL != srv.URL+"/live/"+want {
			t.Fatalf("URL = %q", seg.URL)
		}
	}
	if it.Position() != 2 {
		t.Fatalf("Position() = %d, want 2", it.Position())
	}
	if dec.data[1] != "bytes of /live/b.aac" {
		t.Fatalf("decoder got %q", dec.data[1])
	}
}

func TestNextWaitsForAppend(t *testing.T) {
	srv := segmentServer(t)
	q := NewTrackQueue()
	it, _ := NewSegmentIterator(srv.URL+"/", q, NewFetcher(srv.Client()), &recordingDecoder{}, nil)

	got := make(chan Segment, 1)
	go func() {
		seg, err := it.Next(context.Background())
		if err != nil {
			t.Errorf("Next() error = %v", err)
		}
		got <- seg
	}()

	select {
	case <-got:
		t.Fatal("Next() returned before any track was queued")
	case <-time.After(20 * time.Millisecond):
	}
	q.Append(Track{Name: "late.aac", Duration: 6})
	select {
	case seg := <-got:
		if seg.Track.Name != "late.aac" {
			t.Fatalf("got %q, want late.aac", seg.Track.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next() did not wake on append")
	}
}

func TestNextCancelWhileWaiting(t *testing.T) {
	it, _ := NewSegmentIterator("http://127.0.0.1/", NewTrackQueue(), NewFetcher(nil), &recordingDecoder{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := it.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Next() error = %v, want DeadlineExceeded", err)
	}
	if it.Position() != 0 {
		t.Fatalf("Position() = %d after cancelled wait, want 0", it.Position())
	}
}

func TestNextFetchFailureIsNotRetried(t *testing.T) {
	srv := segmentServer(t)
	q := NewTrackQueue()
	it, _ := NewSegmentIterator(srv.URL+"/", q, NewFetcher(srv.Client()), &recordingDecoder{}, nil)
	q.Append(Track{Name: "missing.aac", Duration: 6}, Track{Name: "next.aac", Duration: 6})

	_, err := it.Next(context.Background())
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("Next() error = %v, want ErrBadStatus", err)
	}
	seg, err := it.Next(context.Background())
	if err != nil || seg.Track.Name != "next.aac" {
		t.Fatalf("Next() after failure = %+v, %v; want next.aac", seg.Track, err)
	}
}

func TestAllStopsAtDecodeError(t *testing.T) {
	srv := segmentServer(t)
	q := NewTrackQueue()
	decErr := errors.New("corrupt")
	dec := &recordingDecoder{err: decErr}
	it, _ := NewSegmentIterator(srv.URL+"/", q, NewFetcher(srv.Client()), dec, nil)
	q.Append(Track{Name: "x.aac", Duration: 6}, Track{Name: "y.aac", Duration: 6})

	var errs []error
	for _, err := range it.All(context.Background()) {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], decErr) {
		t.Fatalf("All() errors = %v, want [corrupt]", errs)
	}
	if len(dec.names) != 1 {
		t.Fatalf("decoder called %d times, want 1", len(dec.names))
	}
}
