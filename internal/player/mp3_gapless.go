package player

import (
	"encoding/binary"
	"fmt"
)

const mp3DecoderDelaySamples = 529

// mp3GaplessTrim reads the LAME encoder delay and padding from the Xing or
// Info header in the first frame of an MP3 payload (ID3 already removed).
// It returns how many sample frames to drop from each end of the decoded
// audio; zeros when no usable header is present.
func mp3GaplessTrim(data []byte) (startSamples, endSamples int64) {
	if len(data) < 4 {
		return 0, 0
	}
	header, err := parseMP3FrameHeader(data[:4])
	if err != nil {
		return 0, 0
	}

	xingOffset := 4 + header.crcBytes + header.sideInfoBytes
	if xingOffset >= len(data) {
		return 0, 0
	}
	b := data[xingOffset:]
	if len(b) > 256 {
		b = b[:256]
	}
	start, end, ok := parseXingLAMEGapless(b)
	if !ok {
		return 0, 0
	}
	return start, end
}

type mp3FrameHeader struct {
	crcBytes      int
	sideInfoBytes int
}

func parseMP3FrameHeader(b []byte) (mp3FrameHeader, error) {
	if len(b) < 4 {
		return mp3FrameHeader{}, fmt.Errorf("short mp3 header")
	}
	h := binary.BigEndian.Uint32(b)
	if h>>21 != 0x7ff {
		return mp3FrameHeader{}, fmt.Errorf("invalid mp3 sync")
	}

	versionID := (h >> 19) & 0x3
	layer := (h >> 17) & 0x3
	protectionBit := (h >> 16) & 0x1
	channelMode := (h >> 6) & 0x3

	if layer != 0x1 {
		return mp3FrameHeader{}, fmt.Errorf("not layer iii")
	}
	if versionID == 0x1 {
		return mp3FrameHeader{}, fmt.Errorf("reserved mpeg version")
	}

	mpeg1 := versionID == 0x3
	mono := channelMode == 0x3

	var sideInfoBytes int
	switch {
	case mpeg1 && mono:
		sideInfoBytes = 17
	case mpeg1:
		sideInfoBytes = 32
	case mono:
		sideInfoBytes = 9
	default:
		sideInfoBytes = 17
	}

	crcBytes := 0
	if protectionBit == 0 {
		crcBytes = 2
	}
	return mp3FrameHeader{crcBytes: crcBytes, sideInfoBytes: sideInfoBytes}, nil
}

func parseXingLAMEGapless(b []byte) (int64, int64, bool) {
	if len(b) < 8 {
		return 0, 0, false
	}
	tag := string(b[:4])
	if tag != "Xing" && tag != "Info" {
		return 0, 0, false
	}

	flags := binary.BigEndian.Uint32(b[4:8])
	offset := 8
	for _, field := range []struct {
		bit  uint32
		size int
	}{{0x1, 4}, {0x2, 4}, {0x4, 100}, {0x8, 4}} {
		if flags&field.bit != 0 {
			offset += field.size
		}
	}
	if len(b) < offset+24 {
		return 0, 0, false
	}

	delayPadding := b[offset+21 : offset+24]
	encDelay := int(delayPadding[0])<<4 | int(delayPadding[1]>>4)
	encPadding := int(delayPadding[1]&0x0f)<<8 | int(delayPadding[2])
	if encDelay == 0 && encPadding == 0 {
		return 0, 0, false
	}

	start := int64(encDelay + mp3DecoderDelaySamples)
	end := max(int64(encPadding-mp3DecoderDelaySamples), 0)
	return start, end, true
}

// trimFrames drops start frames from the front and end frames from the back
// of interleaved s16le PCM.
func trimFrames(pcm []byte, frameSize int, start, end int64) []byte {
	frames := int64(len(pcm) / frameSize)
	if start+end >= frames {
		return pcm
	}
	return pcm[start*int64(frameSize) : (frames-end)*int64(frameSize)]
}
