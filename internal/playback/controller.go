package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyloop/lecture-gateway/internal/audio"
	"github.com/studyloop/lecture-gateway/internal/config"
	"github.com/studyloop/lecture-gateway/internal/observability"
	"github.com/studyloop/lecture-gateway/internal/tts"
)

// State is the session controller's lifecycle position.
type State int

const (
	// StateIdle means no speech session is in flight.
	StateIdle State = iota
	// StateRequesting means a synthesis request has been issued and the
	// response is pending.
	StateRequesting
	// StatePlaying means decoded audio has been handed to the output device.
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Controller runs at most one speech session at a time: synthesize, decode,
// play, and return to idle on every path, success or failure. Concurrent
// requests while a session is in flight are dropped, not queued.
type Controller struct {
	speech     tts.SpeechClient
	newDevice  DeviceFactory
	sampleRate int
	channels   int
	timeout    time.Duration
	logger     zerolog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	device Device

	onTransition func(State)
	pending      []State
	notifying    bool
}

// NewController wires a controller from config. The device factory is not
// invoked until the first session reaches playback.
func NewController(cfg *config.Config, speech tts.SpeechClient, factory DeviceFactory) *Controller {
	return &Controller{
		speech:     speech,
		newDevice:  factory,
		sampleRate: cfg.SampleRate,
		channels:   cfg.ChannelCount,
		timeout:    time.Duration(cfg.SpeakTimeout) * time.Second,
		logger:     observability.WithComponent("playback-controller"),
		state:      StateIdle,
	}
}

// OnTransition registers a hook invoked after every state change. Set it
// before the first Speak call; it runs outside the controller lock. Hooks
// observe transitions in state machine order: changes are queued under the
// lock and drained by a single notifier at a time.
func (c *Controller) OnTransition(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransition = fn
}

// queueTransitionLocked records a state change for the hook. Caller holds c.mu.
func (c *Controller) queueTransitionLocked(s State) {
	if c.onTransition != nil {
		c.pending = append(c.pending, s)
	}
}

// flushTransitions drains queued state changes through the hook. If another
// goroutine is already draining, it will pick up anything queued here, which
// keeps delivery ordered and makes hooks that call back into the controller
// safe.
func (c *Controller) flushTransitions() {
	c.mu.Lock()
	if c.notifying {
		c.mu.Unlock()
		return
	}
	c.notifying = true
	for len(c.pending) > 0 {
		s := c.pending[0]
		c.pending = c.pending[1:]
		hook := c.onTransition
		c.mu.Unlock()
		if hook != nil {
			hook(s)
		}
		c.mu.Lock()
	}
	c.notifying = false
	c.mu.Unlock()
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Speak starts a speech session for the given text and reports whether one
// was started. A session already in flight makes this a no-op returning
// false; blank text is accepted and resolves through the normal pipeline.
func (c *Controller) Speak(text string) bool {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug().
			Str("state", state.String()).
			Msg("speech request dropped, session already in flight")
		observability.RecordSessionRejected()
		return false
	}
	c.state = StateRequesting
	gen := c.gen
	c.queueTransitionLocked(StateRequesting)
	c.mu.Unlock()

	c.flushTransitions()
	observability.RecordSessionStart()

	go c.runSession(gen, text)
	return true
}

func (c *Controller) runSession(gen uint64, text string) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	payload, err := c.speech.Synthesize(ctx, text)
	if err != nil {
		c.logger.Error().Err(err).Msg("speech synthesis failed")
		observability.RecordError("synthesis", "playback-controller")
		c.finish(gen, "remote_error", start)
		return
	}

	if payload == "" {
		c.logger.Info().Msg("synthesis returned no audio")
		c.finish(gen, "no_audio", start)
		return
	}

	buf, err := audio.Decode(payload, c.sampleRate, c.channels)
	if err != nil {
		kind := "truncated"
		if errors.Is(err, audio.ErrEncoding) {
			kind = "encoding"
		}
		c.logger.Error().Err(err).Str("kind", kind).Msg("audio payload rejected")
		observability.RecordDecodeFailure(kind)
		c.finish(gen, "decode_error", start)
		return
	}

	dev, err := c.acquireDevice()
	if err != nil {
		c.logger.Error().Err(err).Msg("audio device unavailable")
		observability.RecordError("device", "playback-controller")
		c.finish(gen, "device_error", start)
		return
	}

	c.logger.Debug().
		Int("frames", buf.FrameCount()).
		Dur("duration", buf.Duration()).
		Float64("rms", audio.RMS(buf.Channels[0])).
		Msg("submitting decoded audio")

	err = dev.Play(buf, func(playErr error) {
		if playErr != nil {
			c.logger.Error().Err(playErr).Msg("playback stopped with error")
			c.finish(gen, "device_error", start)
			return
		}
		c.finish(gen, "played", start)
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("device rejected audio buffer")
		observability.RecordError("device", "playback-controller")
		c.finish(gen, "device_error", start)
		return
	}

	observability.RecordAudioBytesPlayed(int64(buf.ByteLen()))
	c.enterPlaying(gen)
}

// acquireDevice creates the device on first use and reuses it afterwards.
func (c *Controller) acquireDevice() (Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return c.device, nil
	}
	dev, err := c.newDevice(c.sampleRate, c.channels)
	if err != nil {
		return nil, err
	}
	c.device = dev
	return dev, nil
}

// enterPlaying advances to Playing unless the session already finished,
// which happens when the device reports completion before submission
// returns.
func (c *Controller) enterPlaying(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateRequesting {
		c.mu.Unlock()
		return
	}
	c.state = StatePlaying
	c.queueTransitionLocked(StatePlaying)
	c.mu.Unlock()

	c.flushTransitions()
}

// finish ends the session identified by gen and returns the controller to
// Idle. Later calls for the same session are ignored.
func (c *Controller) finish(gen uint64, outcome string, start time.Time) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.state = StateIdle
	c.queueTransitionLocked(StateIdle)
	c.mu.Unlock()

	observability.RecordSessionEnd(outcome, start)
	c.logger.Info().
		Str("outcome", outcome).
		Dur("elapsed", time.Since(start)).
		Msg("speech session finished")

	c.flushTransitions()
}

// Close releases the output device if one was created.
func (c *Controller) Close() error {
	c.mu.Lock()
	dev := c.device
	c.device = nil
	c.mu.Unlock()

	if dev != nil {
		return dev.Close()
	}
	return nil
}
