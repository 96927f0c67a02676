package playback

import "github.com/studyloop/lecture-gateway/internal/audio"

// Device is the output boundary required by the session controller:
// accept one decoded buffer and deliver exactly one completion notification
// after all samples have been consumed. No pause, seek or volume.
type Device interface {
	// Play submits the buffer for playback and returns once playback has
	// started. onDone is invoked exactly once when playback finishes, with
	// the error that stopped it (nil on normal completion). If Play itself
	// returns an error, playback never started and onDone is never invoked.
	Play(buf *audio.Buffer, onDone func(error)) error

	// Close releases the device.
	Close() error
}

// DeviceFactory creates the output device at the given fixed sample rate and
// channel count. The controller calls it at most once: lazily, on the first
// playback attempt that has audio to play.
type DeviceFactory func(sampleRate, channels int) (Device, error)
