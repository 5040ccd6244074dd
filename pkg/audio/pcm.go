package audio

import (
	"encoding/base64"
	"encoding/binary"
)

const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
)

// Decode turns a base64 payload into raw bytes. No validation beyond what the
// decoder itself applies.
func Decode(base64Pcm string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Pcm)
}

// ToFloat32 reinterprets the buffer as 16-bit signed little-endian PCM,
// deinterleaves it per channel and normalizes each sample to [-1, 1) by
// dividing by 32768. A trailing odd byte is ignored.
func ToFloat32(data []byte, channels int) [][]float32 {
	if channels < 1 {
		channels = DefaultChannels
	}

	sampleCount := len(data) / 2
	frameCount := sampleCount / channels

	out := make([][]float32, channels)
	for ch := 0; ch < channels; ch++ {
		out[ch] = make([]float32, frameCount)
		for i := 0; i < frameCount; i++ {
			raw := binary.LittleEndian.Uint16(data[(i*channels+ch)*2:])
			out[ch][i] = float32(int16(raw)) / 32768.0
		}
	}
	return out
}
