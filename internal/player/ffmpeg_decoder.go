package player

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Seams for tests.
var (
	ffmpegLookPath = exec.LookPath
	ffmpegRun      = func(ctx context.Context, name string, stdin []byte, args ...string) ([]byte, []byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = bytes.NewReader(stdin)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		return stdout.Bytes(), stderr.Bytes(), err
	}
)

// ffmpegInputFormat returns the demuxer name to force for format, or "" to
// let ffmpeg probe.
func ffmpegInputFormat(format Format) string {
	switch format {
	case FormatADTS:
		return "aac"
	case FormatMPEGTS:
		return "mpegts"
	default:
		return ""
	}
}

// decodeWithFFmpeg pipes data through ffmpeg and returns 48 kHz stereo s16le
// PCM. It covers the containers and codecs without a Go decoder here: ADTS
// AAC, MPEG-TS and fragmented MP4.
func decodeWithFFmpeg(ctx context.Context, format Format, data []byte) ([]byte, error) {
	ffmpeg, err := ffmpegLookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegNotFound
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if f := ffmpegInputFormat(format); f != "" {
		args = append(args, "-f", f)
	}
	args = append(args,
		"-i", "pipe:0",
		"-vn",
		"-f", "s16le", // signed 16-bit little-endian PCM
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(playbackSampleRate),
		"-ac", strconv.Itoa(playbackChannels),
		"pipe:1",
	)

	stdout, stderr, err := ffmpegRun(ctx, ffmpeg, data, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return nil, fmt.Errorf("ffmpeg failed to decode segment: %w", err)
		}
		return nil, fmt.Errorf("ffmpeg failed to decode segment: %w\n%s", err, msg)
	}
	return stdout, nil
}
