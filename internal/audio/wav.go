package audio

import "encoding/binary"

// Interleave16 converts a decoded buffer back into interleaved 16-bit
// little-endian PCM bytes. Samples are scaled by 32768 and clamped to the
// int16 range. External players consume this framing, not float samples.
func Interleave16(buf *Buffer) []byte {
	channels := buf.ChannelCount()
	frames := buf.FrameCount()
	out := make([]byte, frames*channels*2)

	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			v := buf.Channels[ch][f] * 32768.0
			if v > 32767.0 {
				v = 32767.0
			} else if v < -32768.0 {
				v = -32768.0
			}
			binary.LittleEndian.PutUint16(out[(f*channels+ch)*2:], uint16(int16(v)))
		}
	}

	return out
}

// WAVHeader builds a 44-byte RIFF/WAVE header for raw 16-bit PCM data of the
// given byte length. Players that cannot take raw PCM on stdin (ffplay,
// afplay) need the data WAV-framed.
func WAVHeader(dataLen, channels, sampleRate, bitsPerSample int) []byte {
	header := make([]byte, 44)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	return header
}
