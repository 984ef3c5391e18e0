package player

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when segment bytes match no decoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrFFmpegNotFound is returned when a segment needs ffmpeg and it is
	// not on PATH.
	ErrFFmpegNotFound = errors.New("ffmpeg not found (required for AAC and MPEG-TS segments)")
	// ErrEmptyAudio is returned when a segment decodes to no samples.
	ErrEmptyAudio = errors.New("segment decoded to no audio")
)

// DecodeError wraps a failure to decode one named segment.
type DecodeError struct {
	Name   string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s (%s): %v", e.Name, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
