package hls

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	fetchHeaderTimeout = 10 * time.Second
	userAgent          = "scalo"

	// Upper bounds on response bodies. Live audio segments are a few
	// hundred kilobytes; anything near these limits is not a segment.
	maxPlaylistBytes = 4 << 20
	maxSegmentBytes  = 64 << 20
)

var defaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: fetchHeaderTimeout,
	},
}

// Fetcher performs the playlist and segment GETs. Every request carries the
// caller's context so shutdown interrupts a transfer in flight.
type Fetcher struct {
	client      *http.Client
	maxPlaylist int64
	maxSegment  int64
}

// NewFetcher returns a Fetcher using client, or a default client with a
// response header timeout when client is nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = defaultHTTPClient
	}
	return &Fetcher{client: client, maxPlaylist: maxPlaylistBytes, maxSegment: maxSegmentBytes}
}

// readCapped reads all of r, failing with ErrTooLarge rather than returning
// a body cut short at limit bytes.
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	return resp, nil
}

// Document fetches a playlist and returns its body as UTF-8 text, converting
// from the charset declared in Content-Type when there is one.
func (f *Fetcher) Document(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if label := declaredCharset(resp.Header.Get("Content-Type")); label != "" {
		r, err = charset.NewReaderLabel(label, r)
		if err != nil {
			return "", fmt.Errorf("decoding playlist charset: %w", err)
		}
	}
	// The cap applies to the decoded text.
	body, err := readCapped(r, f.maxPlaylist)
	if err != nil {
		return "", fmt.Errorf("reading playlist: %w", err)
	}
	return string(body), nil
}

// declaredCharset returns the charset parameter of a Content-Type value.
// Playlists are UTF-8 unless the server says otherwise.
func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	label := strings.ToLower(params["charset"])
	if label == "utf-8" || label == "utf8" {
		return ""
	}
	return label
}

// Bytes fetches a media segment.
func (f *Fetcher) Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readCapped(resp.Body, f.maxSegment)
	if err != nil {
		return nil, fmt.Errorf("reading segment: %w", err)
	}
	return data, nil
}
