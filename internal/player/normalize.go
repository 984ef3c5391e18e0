package player

import (
	"encoding/binary"
	"fmt"
)

const (
	playbackSampleRate     = 48000
	playbackChannels       = 2
	playbackBytesPerSample = 2
	playbackFrameSize      = playbackChannels * playbackBytesPerSample
	playbackBytesPerSec    = playbackSampleRate * playbackFrameSize
)

// normalizePCM converts interleaved s16le PCM at any rate with one or two
// channels to 48 kHz stereo s16le, the only format the output device is
// opened with. Mono is duplicated to both channels; rate conversion is
// linear interpolation between neighbouring source frames.
func normalizePCM(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", sampleRate)
	}
	if channels < 1 || channels > playbackChannels {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if sampleRate == playbackSampleRate && channels == playbackChannels {
		return pcm, nil
	}

	srcFrameSize := channels * playbackBytesPerSample
	totalSrcFrames := int64(len(pcm) / srcFrameSize)
	if totalSrcFrames == 0 {
		return nil, nil
	}
	totalOutFrames := max(totalSrcFrames*playbackSampleRate/int64(sampleRate), 1)

	frameAt := func(i int64) (int16, int16) {
		i = min(i, totalSrcFrames-1)
		off := int(i) * srcFrameSize
		left := int16(binary.LittleEndian.Uint16(pcm[off:]))
		if channels == 1 {
			return left, left
		}
		return left, int16(binary.LittleEndian.Uint16(pcm[off+2:]))
	}

	out := make([]byte, totalOutFrames*playbackFrameSize)
	var srcPosNum int64
	for f := int64(0); f < totalOutFrames; f++ {
		srcFrame := srcPosNum / playbackSampleRate
		fracNum := srcPosNum % playbackSampleRate
		left0, right0 := frameAt(srcFrame)
		left1, right1 := frameAt(srcFrame + 1)

		off := f * playbackFrameSize
		binary.LittleEndian.PutUint16(out[off:], uint16(interpolateSample(left0, left1, fracNum)))
		binary.LittleEndian.PutUint16(out[off+2:], uint16(interpolateSample(right0, right1, fracNum)))
		srcPosNum += int64(sampleRate)
	}
	return out, nil
}

func interpolateSample(a, b int16, fracNum int64) int16 {
	if fracNum == 0 || a == b {
		return a
	}
	diff := int64(int32(b) - int32(a))
	return int16(int64(int32(a)) + (diff*fracNum+playbackSampleRate/2)/playbackSampleRate)
}

// monoFloat averages the channels of interleaved s16le PCM into samples in
// [-1, 1).
func monoFloat(pcm []byte, channels int) []float32 {
	frameSize := channels * 2
	frames := len(pcm) / frameSize
	out := make([]float32, frames)
	for i := range out {
		var sum int
		for ch := 0; ch < channels; ch++ {
			sum += int(int16(binary.LittleEndian.Uint16(pcm[i*frameSize+ch*2:])))
		}
		out[i] = float32(sum) / float32(channels) / 32768
	}
	return out
}
