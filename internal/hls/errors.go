package hls

import (
	"errors"
	"fmt"
)

var (
	// ErrBadStatus is returned when a playlist or segment request gets a
	// non-2xx response.
	ErrBadStatus = errors.New("unexpected HTTP status")
	// ErrNotPlaylist is returned when a fetched document is not a media
	// playlist with at least one segment.
	ErrNotPlaylist = errors.New("not a media playlist")
	// ErrTooLarge is returned when a response body exceeds its size cap.
	ErrTooLarge = errors.New("response body too large")
)

// StatusError records the failing URL and response code.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d", e.URL, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}
