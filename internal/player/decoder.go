package player

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioDecoder is implemented by all format-specific decoders. Read yields
// interleaved signed 16-bit little-endian PCM at the native rate.
type audioDecoder interface {
	io.Reader
	SampleRate() int
	ChannelCount() int
}

// newNativeDecoder returns the in-process decoder for format.
func newNativeDecoder(format Format, data []byte) (audioDecoder, error) {
	switch format {
	case FormatMP3:
		return newMP3Decoder(bytes.NewReader(data))
	case FormatWAV:
		return newWAVDecoder(bytes.NewReader(data))
	case FormatFLAC:
		return newFLACDecoder(bytes.NewReader(data))
	case FormatOgg:
		return newOGGDecoder(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// readPCM drains dec and returns whole frames only.
func readPCM(dec audioDecoder) ([]byte, error) {
	pcm, err := io.ReadAll(dec)
	if err != nil && len(pcm) == 0 {
		return nil, err
	}
	frameSize := dec.ChannelCount() * 2
	if frameSize <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", dec.ChannelCount())
	}
	return pcm[:len(pcm)-len(pcm)%frameSize], nil
}

func clamp16(sample int) int16 {
	if sample > 32767 {
		return 32767
	}
	if sample < -32768 {
		return -32768
	}
	return int16(sample)
}

// --- MP3 decoder ---

// go-mp3 always produces 16-bit stereo at the stream's rate.
type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(r io.Reader) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) SampleRate() int            { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int          { return 2 }

// --- WAV decoder ---

type wavDecoder struct {
	raw        *bytes.Reader
	sampleRate int
	channels   int
}

func newWAVDecoder(r io.ReadSeeker) (*wavDecoder, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("WAV file has no format chunk")
	}

	return &wavDecoder{
		raw:        bytes.NewReader(intBufferToS16(buf)),
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
	}, nil
}

// intBufferToS16 rescales samples of any source bit depth to 16 bits.
func intBufferToS16(buf *audio.IntBuffer) []byte {
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}
	raw := make([]byte, len(buf.Data)*2)
	for i, v := range buf.Data {
		var sample int
		switch {
		case depth == 8:
			// 8-bit WAV is unsigned
			sample = (v - 128) << 8
		case depth > 16:
			sample = v >> (depth - 16)
		default:
			sample = v << (16 - depth)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(sample)))
	}
	return raw
}

func (d *wavDecoder) Read(p []byte) (int, error) { return d.raw.Read(p) }
func (d *wavDecoder) SampleRate() int            { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int          { return d.channels }

// --- FLAC decoder ---

type flacDecoder struct {
	stream     *flac.Stream
	buf        []byte
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(r io.Reader) (*flacDecoder, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	return &flacDecoder{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	// Drain buffered data first
	if len(d.buf) > 0 {
		n := copy(p, d.buf)
		d.buf = d.buf[n:]
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*d.channels*2)
	for i := 0; i < nSamples; i++ {
		for ch := 0; ch < d.channels; ch++ {
			sample := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				sample >>= (d.bps - 16)
			case d.bps < 16:
				sample <<= (16 - d.bps)
			}
			offset := (i*d.channels + ch) * 2
			binary.LittleEndian.PutUint16(raw[offset:], uint16(clamp16(sample)))
		}
	}

	n := copy(p, raw)
	if n < len(raw) {
		d.buf = raw[n:]
	}
	return n, nil
}

func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis decoder ---

type oggDecoder struct {
	reader *oggvorbis.Reader
	buf    []byte
}

func newOGGDecoder(r io.Reader) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &oggDecoder{reader: reader}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.buf) > 0 {
		n := copy(p, d.buf)
		d.buf = d.buf[n:]
		return n, nil
	}

	// Read float32 samples (interleaved)
	samples := make([]float32, max(len(p)/2, d.reader.Channels()))
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		s = min(max(s, -1), 1)
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}

	written := copy(p, raw)
	if written < len(raw) {
		d.buf = raw[written:]
	}
	return written, err
}

func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.reader.Channels() }
