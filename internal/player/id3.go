package player

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
)

// transportStreamTimestampOwner is the PRIV owner HLS packed audio uses to
// carry the MPEG-2 presentation timestamp of a segment's first sample.
const transportStreamTimestampOwner = "com.apple.streaming.transportStreamTimestamp"

const (
	id3HeaderSize = 10
	ptsClockRate  = 90000
	ptsMask       = 1<<33 - 1
)

// SegmentTag is what a segment's leading ID3 tag says about it.
type SegmentTag struct {
	Title string
	// Timestamp is the presentation time of the first sample, valid when
	// HasTimestamp is set.
	Timestamp    time.Duration
	HasTimestamp bool
}

// id3Length returns the byte length of the ID3v2 tag at the start of data,
// footer included, or 0 when there is none.
func id3Length(data []byte) int {
	if len(data) < id3HeaderSize || !bytes.HasPrefix(data, []byte("ID3")) {
		return 0
	}
	size := synchsafeUint32(data[6:10])
	footer := 0
	if data[5]&0x10 != 0 {
		footer = 10
	}
	n := id3HeaderSize + size + footer
	if n > len(data) {
		return len(data)
	}
	return n
}

func synchsafeUint32(b []byte) int {
	return int(b[0]&0x7f)<<21 | int(b[1]&0x7f)<<14 | int(b[2]&0x7f)<<7 | int(b[3]&0x7f)
}

// readSegmentTag parses the ID3 tag at the start of data. It returns the
// tag contents and the offset where the audio payload begins. Segments
// without a tag, or with one id3v2 cannot parse, yield an empty SegmentTag.
func readSegmentTag(data []byte) (SegmentTag, int) {
	n := id3Length(data)
	if n == 0 {
		return SegmentTag{}, 0
	}

	tag, err := id3v2.ParseReader(bytes.NewReader(data[:n]), id3v2.Options{Parse: true})
	if err != nil {
		return SegmentTag{}, n
	}
	defer tag.Close()

	st := SegmentTag{Title: strings.TrimSpace(tag.Title())}
	for _, f := range tag.GetFrames("PRIV") {
		uf, ok := f.(id3v2.UnknownFrame)
		if !ok {
			continue
		}
		if ts, ok := parseTimestampPRIV(uf.Body); ok {
			st.Timestamp = ts
			st.HasTimestamp = true
			break
		}
	}
	return st, n
}

// parseTimestampPRIV decodes a PRIV body of the form owner NUL then an
// 8-byte big-endian value whose low 33 bits are a 90 kHz timestamp.
func parseTimestampPRIV(body []byte) (time.Duration, bool) {
	owner, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || string(owner) != transportStreamTimestampOwner || len(rest) < 8 {
		return 0, false
	}
	ticks := binary.BigEndian.Uint64(rest[:8]) & ptsMask
	return time.Duration(ticks) * time.Second / ptsClockRate, true
}
