package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyloop/lecture-gateway/internal/config"
	"github.com/studyloop/lecture-gateway/internal/observability"
	"github.com/studyloop/lecture-gateway/internal/resilience"
)

// GeminiClient implements SpeechClient against the Gemini generateContent
// endpoint with audio response modality. The service returns zero or one
// inlined audio payload: base64-encoded raw interleaved 16-bit LE PCM at the
// sample rate fixed by the caller's configuration.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	voice      string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retryCfg   *resilience.RetryConfig
	logger     zerolog.Logger
}

// Gemini generateContent request/response structures
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded payload, passed through untouched
}

type geminiGenerationConfig struct {
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	SpeechConfig       *geminiSpeechConfig `json:"speechConfig,omitempty"`
}

type geminiSpeechConfig struct {
	VoiceConfig *geminiVoiceConfig `json:"voiceConfig,omitempty"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig *geminiPrebuiltVoice `json:"prebuiltVoiceConfig,omitempty"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// httpStatusError carries the response status so the retry predicate can
// distinguish client errors from transient server failures.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("tts service returned status %d: %s", e.status, e.body)
}

// NewGeminiClient creates a speech client with the voice and model from config.
func NewGeminiClient(cfg *config.Config) *GeminiClient {
	return &GeminiClient{
		apiKey:  cfg.GeminiAPIKey,
		baseURL: cfg.TTSBaseURL,
		model:   cfg.TTSModel,
		voice:   cfg.TTSVoice,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SpeakTimeout) * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(
			"tts",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		retryCfg: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		},
		logger: observability.WithComponent("tts"),
	}
}

// Synthesize issues the remote TTS call and extracts the inlined audio
// payload. Transport errors and 429/5xx responses are retried with backoff;
// repeated failures trip the circuit breaker.
func (c *GeminiClient) Synthesize(ctx context.Context, text string) (string, error) {
	start := time.Now()

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: text}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &geminiSpeechConfig{
				VoiceConfig: &geminiVoiceConfig{
					PrebuiltVoiceConfig: &geminiPrebuiltVoice{VoiceName: c.voice},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		observability.RecordTTSRequest(false, start)
		return "", fmt.Errorf("failed to marshal TTS request: %w", err)
	}

	var payload string
	err = resilience.Retry(ctx, func() error {
		return c.breaker.Call(func() error {
			var attemptErr error
			payload, attemptErr = c.doRequest(ctx, jsonData)
			return attemptErr
		})
	}, c.retryCfg, isRetryableTTSError)

	// Update circuit breaker metrics
	observability.UpdateCircuitBreakerState("tts", int(c.breaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("tts")
		observability.RecordTTSRequest(false, start)
		observability.RecordError("remote_call", "tts")
		return "", err
	}

	observability.RecordTTSRequest(true, start)
	c.logger.Debug().
		Int("text_len", len(text)).
		Int("payload_len", len(payload)).
		Dur("latency", time.Since(start)).
		Msg("TTS synthesis completed")

	return payload, nil
}

func (c *GeminiClient) doRequest(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create TTS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &httpStatusError{status: resp.StatusCode, body: string(bytes.TrimSpace(snippet))}
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode TTS response: %w", err)
	}

	// Absence of an inlined payload is a valid non-error response.
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return part.InlineData.Data, nil
			}
		}
	}
	return "", nil
}

func isRetryableTTSError(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return resilience.IsRetryableHTTPStatus(statusErr.status)
	}
	return resilience.IsRetryableNetworkError(err)
}
