package playback

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"github.com/studyloop/lecture-gateway/internal/audio"
	"github.com/studyloop/lecture-gateway/internal/observability"
)

// playerPriority lists the external players probed when no command is
// configured, most preferred first.
var playerPriority = []string{"ffplay", "aplay", "paplay", "afplay"}

// PlayerDevice renders buffers by piping WAV-framed PCM to an external
// command line player, one process per submission.
type PlayerDevice struct {
	command    string
	sampleRate int
	channels   int
	logger     zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPlayerDevice builds a device around the given player command. An empty
// command triggers PATH detection across the known players.
func NewPlayerDevice(command string, sampleRate, channels int) (*PlayerDevice, error) {
	if command == "" {
		command = detectPlayer()
	}
	if command == "" {
		return nil, fmt.Errorf("no audio player found on PATH (tried %v)", playerPriority)
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("audio player %q not available: %w", command, err)
	}
	return &PlayerDevice{
		command:    command,
		sampleRate: sampleRate,
		channels:   channels,
		logger:     observability.WithComponent("player-device"),
	}, nil
}

func detectPlayer() string {
	for _, name := range playerPriority {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	return ""
}

// Play frames the buffer as a WAV stream and hands it to the player process.
// The completion callback fires when the process exits.
func (d *PlayerDevice) Play(buf *audio.Buffer, onDone func(error)) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("player device is closed")
	}
	d.mu.Unlock()

	pcm := audio.Interleave16(buf)
	wav := append(audio.WAVHeader(len(pcm), d.channels, d.sampleRate, 16), pcm...)

	if d.command == "afplay" {
		return d.playFromFile(wav, onDone)
	}
	return d.playFromStdin(wav, onDone)
}

func (d *PlayerDevice) playFromStdin(wav []byte, onDone func(error)) error {
	cmd := exec.Command(d.command, playerArgs(d.command)...)
	cmd.Stdin = bytes.NewReader(wav)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", d.command, err)
	}

	d.logger.Debug().
		Str("player", d.command).
		Int("wav_bytes", len(wav)).
		Msg("playback process started")

	go func() {
		onDone(cmd.Wait())
	}()
	return nil
}

// playFromFile covers players that cannot read from stdin. The temp file is
// removed after the process exits.
func (d *PlayerDevice) playFromFile(wav []byte, onDone func(error)) error {
	f, err := os.CreateTemp("", "lecture-audio-*.wav")
	if err != nil {
		return fmt.Errorf("creating temp audio file: %w", err)
	}
	if _, err := f.Write(wav); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("writing temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("closing temp audio file: %w", err)
	}

	cmd := exec.Command(d.command, f.Name())
	if err := cmd.Start(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("starting %s: %w", d.command, err)
	}

	go func() {
		err := cmd.Wait()
		os.Remove(f.Name())
		onDone(err)
	}()
	return nil
}

func playerArgs(command string) []string {
	switch command {
	case "ffplay":
		return []string{"-autoexit", "-nodisp", "-loglevel", "error", "-i", "-"}
	case "aplay":
		return []string{"-q", "-"}
	case "paplay":
		return nil
	default:
		return nil
	}
}

// Close marks the device unusable for further submissions. Processes already
// running are left to drain.
func (d *PlayerDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
