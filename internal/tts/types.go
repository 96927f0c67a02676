package tts

import "context"

// SpeechClient is the boundary to the remote speech-generation service.
type SpeechClient interface {
	// Synthesize converts text to speech with the client's fixed voice
	// configuration. It returns the audio payload still base64-encoded as it
	// arrived on the wire; decoding is the caller's concern. An empty string
	// with a nil error is a valid "service produced no audio" response.
	Synthesize(ctx context.Context, text string) (string, error)
}
