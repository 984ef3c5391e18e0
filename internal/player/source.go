package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"time"
)

// Source is one decoded segment. It holds the mono samples the visualiser
// analyses and the PCM the output device plays. A Source is immutable and
// can be played any number of times.
type Source struct {
	Name   string
	Format Format
	// SampleRate and Channels describe the decoded stream before
	// normalisation.
	SampleRate int
	Channels   int
	// Samples is the channel average at SampleRate.
	Samples []float32
	Tag     SegmentTag

	pcm []byte // 48 kHz stereo s16le
}

// Duration is the playback length.
func (s *Source) Duration() time.Duration {
	return pcmDuration(int64(len(s.pcm)))
}

// PCMLen is the playback length in bytes.
func (s *Source) PCMLen() int64 { return int64(len(s.pcm)) }

// NewReader returns a fresh reader over the playback PCM.
func (s *Source) NewReader() io.ReadSeeker {
	return bytes.NewReader(s.pcm)
}

func pcmDuration(n int64) time.Duration {
	return time.Duration(n) * time.Second / playbackBytesPerSec
}

// SourceFromSamples builds a Source from mono samples in [-1, 1].
func SourceFromSamples(name string, samples []float32, sampleRate int) (*Source, error) {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(clamp16(int(s*32767))))
	}
	out, err := normalizePCM(pcm, sampleRate, 1)
	if err != nil {
		return nil, err
	}
	return &Source{
		Name:       name,
		Format:     FormatWAV,
		SampleRate: sampleRate,
		Channels:   1,
		Samples:    samples,
		pcm:        out,
	}, nil
}

// Decoder turns fetched segment bytes into Sources.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder returns a Decoder. A nil logger discards output.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{logger: logger.With("component", "decoder")}
}

// Decode strips a leading ID3 tag from data, detects the encoding and
// decodes it. MP3, WAV, FLAC and Ogg Vorbis decode in process; AAC,
// MPEG-TS and MP4 go through ffmpeg.
func (d *Decoder) Decode(ctx context.Context, name string, data []byte) (*Source, error) {
	tag, off := readSegmentTag(data)
	payload := data[off:]
	format := sniffFormat(name, payload)
	if format == FormatUnknown {
		return nil, &DecodeError{Name: name, Format: format, Err: ErrUnsupportedFormat}
	}

	src, err := d.decode(ctx, format, payload)
	if err != nil {
		return nil, &DecodeError{Name: name, Format: format, Err: err}
	}
	src.Name = name
	src.Format = format
	src.Tag = tag
	if tag.HasTimestamp {
		d.logger.Debug("segment timestamp", "name", name, "pts", tag.Timestamp)
	}

	d.logger.Debug("segment decoded",
		"name", name,
		"format", format.String(),
		"bytes", len(data),
		"sample_rate", src.SampleRate,
		"channels", src.Channels,
		"duration", src.Duration())
	return src, nil
}

func (d *Decoder) decode(ctx context.Context, format Format, payload []byte) (*Source, error) {
	if !format.native() {
		pcm, err := decodeWithFFmpeg(ctx, format, payload)
		if err != nil {
			return nil, err
		}
		if len(pcm) < playbackFrameSize {
			return nil, ErrEmptyAudio
		}
		return &Source{
			SampleRate: playbackSampleRate,
			Channels:   playbackChannels,
			Samples:    monoFloat(pcm, playbackChannels),
			pcm:        pcm,
		}, nil
	}

	dec, err := newNativeDecoder(format, payload)
	if err != nil {
		return nil, err
	}
	native, err := readPCM(dec)
	if err != nil {
		return nil, err
	}
	rate, channels := dec.SampleRate(), dec.ChannelCount()
	if format == FormatMP3 {
		start, end := mp3GaplessTrim(payload)
		native = trimFrames(native, channels*2, start, end)
	}
	if len(native) == 0 {
		return nil, ErrEmptyAudio
	}

	pcm, err := normalizePCM(native, rate, channels)
	if err != nil {
		return nil, err
	}
	return &Source{
		SampleRate: rate,
		Channels:   channels,
		Samples:    monoFloat(native, channels),
		pcm:        pcm,
	}, nil
}
