package player

import (
	"bytes"
	"path"
	"strings"
)

// Format identifies how segment bytes are encoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatMP3
	FormatWAV
	FormatFLAC
	FormatOgg
	FormatADTS
	FormatMPEGTS
	FormatMP4
)

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatWAV:
		return "wav"
	case FormatFLAC:
		return "flac"
	case FormatOgg:
		return "ogg"
	case FormatADTS:
		return "aac"
	case FormatMPEGTS:
		return "mpegts"
	case FormatMP4:
		return "mp4"
	default:
		return "unknown"
	}
}

// native reports whether f has an in-process Go decoder.
func (f Format) native() bool {
	switch f {
	case FormatMP3, FormatWAV, FormatFLAC, FormatOgg:
		return true
	}
	return false
}

const tsPacketSize = 188

// sniffFormat inspects the leading bytes of data, which must already have
// any ID3 tag removed, and falls back to the extension of name.
func sniffFormat(name string, data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOgg
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return FormatMP4
	case isTransportStream(data):
		return FormatMPEGTS
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xF6 == 0xF0:
		// ADTS: 12-bit sync, layer bits zero.
		return FormatADTS
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}

	switch strings.ToLower(path.Ext(stripQuery(name))) {
	case ".mp3":
		return FormatMP3
	case ".wav":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	case ".ogg", ".oga":
		return FormatOgg
	case ".aac":
		return FormatADTS
	case ".ts":
		return FormatMPEGTS
	case ".m4a", ".m4s", ".mp4":
		return FormatMP4
	}
	return FormatUnknown
}

func isTransportStream(data []byte) bool {
	if len(data) < tsPacketSize || data[0] != 0x47 {
		return false
	}
	if len(data) >= 2*tsPacketSize {
		return data[tsPacketSize] == 0x47
	}
	return true
}

func stripQuery(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		return name[:i]
	}
	return name
}
