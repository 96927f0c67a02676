package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"
)

// Decode error taxonomy. Callers match with errors.Is.
var (
	// ErrEncoding means the wire payload is not valid base64.
	ErrEncoding = errors.New("audio payload is not valid base64")
	// ErrTruncated means the raw byte length is not aligned to the
	// sample/channel framing (2 bytes per sample per channel).
	ErrTruncated = errors.New("audio payload truncated")
)

// Buffer holds decoded audio as per-channel float64 samples in [-1.0, 1.0].
// Channels[c][f] is frame f of channel c.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// ChannelCount returns the number of channels in the buffer.
func (b *Buffer) ChannelCount() int {
	return len(b.Channels)
}

// FrameCount returns the number of frames (samples per channel).
func (b *Buffer) FrameCount() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.FrameCount()) / float64(b.SampleRate) * float64(time.Second))
}

// ByteLen returns the raw PCM byte length the buffer was decoded from.
func (b *Buffer) ByteLen() int {
	return b.FrameCount() * b.ChannelCount() * 2
}

// Decode converts a base64-encoded raw interleaved 16-bit little-endian PCM
// payload into a per-channel float buffer. Sample rate and channel count are
// supplied out-of-band; they are never derived from the payload.
func Decode(payload string, sampleRate, channels int) (*Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return DecodeBytes(raw, sampleRate, channels)
}

// DecodeBytes decodes already base64-decoded wire bytes.
// The byte length must be an even multiple of 2*channels; otherwise the
// payload is rejected as truncated rather than partially decoded.
func DecodeBytes(raw []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	frameSize := 2 * channels
	if len(raw)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrTruncated, len(raw), frameSize)
	}

	totalSamples := len(raw) / 2
	frames := totalSamples / channels

	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float64, channels),
	}
	for ch := 0; ch < channels; ch++ {
		buf.Channels[ch] = make([]float64, frames)
	}

	// Interleaved little-endian int16: sample i belongs to channel i%channels.
	// Divisor is 32768 (not 32767), matching the asymmetric int16 range.
	for i := 0; i < totalSamples; i++ {
		sample := int16(raw[i*2]) | int16(raw[i*2+1])<<8
		buf.Channels[i%channels][i/channels] = float64(sample) / 32768.0
	}

	return buf, nil
}

// RMS returns the root mean square level of one channel's samples.
// Used for diagnostics when submitting a buffer for playback.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}

	return math.Sqrt(sum / float64(len(samples)))
}
