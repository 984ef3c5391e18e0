// Package hls follows a live HLS media playlist: it parses manifests, keeps
// the ordered set of discovered segments, polls for new ones and fetches
// and decodes them in order.
package hls

import (
	"math"
	"strconv"
	"strings"
)

// Header tags that carry a single integer value.
const (
	TagVersion               = "#EXT-X-VERSION"
	TagTargetDuration        = "#EXT-X-TARGETDURATION"
	TagMediaSequence         = "#EXT-X-MEDIA-SEQUENCE"
	TagDiscontinuitySequence = "#EXT-X-DISCONTINUITY-SEQUENCE"

	tagHeader  = "#EXTM3U"
	tagInf     = "#EXTINF"
	tagEndList = "#EXT-X-ENDLIST"
)

// ValueKind tags the variant held by a MetadataValue.
type ValueKind int

const (
	KindText ValueKind = iota
	KindInteger
	KindReal
)

// MetadataValue is a manifest header value: text, integer or real.
type MetadataValue struct {
	Kind    ValueKind
	Text    string
	Integer int32
	Real    float32
}

// TextValue wraps s as a text metadata value.
func TextValue(s string) MetadataValue { return MetadataValue{Kind: KindText, Text: s} }
// IntegerValue wraps n as an integer metadata value.
func IntegerValue(n int32) MetadataValue { return MetadataValue{Kind: KindInteger, Integer: n} }
// RealValue wraps f as a real metadata value.
func RealValue(f float32) MetadataValue { return MetadataValue{Kind: KindReal, Real: f} }

func (v MetadataValue) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(int64(v.Integer), 10)
	case KindReal:
		return strconv.FormatFloat(float64(v.Real), 'g', -1, 32)
	default:
		return v.Text
	}
}

// Track is one media segment listed in a manifest. Name is the segment
// locator as written and identifies the track.
type Track struct {
	Name     string
	Duration float32
}

// Manifest is one parsed playlist document.
type Manifest struct {
	Metadata map[string]MetadataValue
	Tracks   []Track
	// Ended is set when the playlist carries #EXT-X-ENDLIST.
	Ended bool
}

// TargetDuration returns the #EXT-X-TARGETDURATION header, if present.
func (m *Manifest) TargetDuration() (int32, bool) {
	return m.integer(TagTargetDuration)
}

// MediaSequence returns the #EXT-X-MEDIA-SEQUENCE header, if present.
func (m *Manifest) MediaSequence() (int32, bool) {
	return m.integer(TagMediaSequence)
}

func (m *Manifest) integer(key string) (int32, bool) {
	v, ok := m.Metadata[key]
	if !ok || v.Kind != KindInteger {
		return 0, false
	}
	return v.Integer, true
}

func isSeparator(r rune) bool {
	switch r {
	case ',', ':', ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// Parse reads a playlist document. It is lenient: malformed header values
// and segment entries are dropped and scanning goes on. It reports false
// when the document does not start with #EXTM3U or lists no segments.
func Parse(document string) (*Manifest, bool) {
	tokens := strings.FieldsFunc(document, isSeparator)
	if len(tokens) == 0 || tokens[0] != tagHeader {
		return nil, false
	}

	m := &Manifest{Metadata: make(map[string]MetadataValue)}
	for i := 1; i < len(tokens); i++ {
		switch tok := tokens[i]; tok {
		case TagVersion, TagTargetDuration, TagMediaSequence, TagDiscontinuitySequence:
			if i+1 >= len(tokens) {
				continue
			}
			n, err := strconv.ParseInt(tokens[i+1], 10, 32)
			if err != nil {
				// Leave the bad value to be scanned as an ordinary token.
				continue
			}
			m.Metadata[tok] = IntegerValue(int32(n))
			i++
		case tagInf:
			if i+2 >= len(tokens) {
				continue
			}
			d, ok := parseDuration(tokens[i+1])
			if !ok {
				continue
			}
			m.Tracks = append(m.Tracks, Track{Name: tokens[i+2], Duration: d})
			i += 2
		case tagEndList:
			m.Ended = true
		}
	}

	if len(m.Tracks) == 0 {
		return nil, false
	}
	return m, true
}

func parseDuration(s string) (float32, bool) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || math.Signbit(f) {
		return 0, false
	}
	return float32(f), true
}
