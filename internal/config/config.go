package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the lecture gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Comma-separated list of allowed CORS origins for the browser UI.
	// Empty means "*" (development mode).
	CorsAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	// Gemini API configuration (shared by the lecture and speech clients)
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`

	// Lecture structuring configuration
	LectureModel      string `envconfig:"LECTURE_MODEL" default:"gemini-2.5-flash"`
	PrimaryLanguage   string `envconfig:"PRIMARY_LANGUAGE" default:"English"`
	SecondaryLanguage string `envconfig:"SECONDARY_LANGUAGE" default:"Japanese"`

	// Speech generation configuration
	TTSModel   string `envconfig:"TTS_MODEL" default:"gemini-2.5-flash-preview-tts"`
	TTSVoice   string `envconfig:"TTS_VOICE" default:"Zephyr"`
	TTSBaseURL string `envconfig:"TTS_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`

	// Audio configuration. The TTS service returns raw interleaved 16-bit
	// little-endian PCM at this rate and channel count; both are fixed by
	// the caller, never derived from the payload.
	SampleRate   int `envconfig:"SAMPLE_RATE" default:"24000"`
	ChannelCount int `envconfig:"CHANNEL_COUNT" default:"1"`

	// Playback configuration
	// AudioPlayerCmd overrides the playback command (e.g. "ffplay", "aplay").
	// Empty picks the first player found on PATH.
	AudioPlayerCmd string `envconfig:"AUDIO_PLAYER_CMD" default:""`
	SpeakTimeout   int    `envconfig:"SPEAK_TIMEOUT" default:"30"` // seconds, bounds the remote TTS call

	// Redis lecture store (optional; in-memory store is used when unset)
	RedisURL   string `envconfig:"REDIS_URL" default:""`
	LectureTTL int    `envconfig:"LECTURE_TTL" default:"86400"` // seconds

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.ChannelCount <= 0 {
		return fmt.Errorf("CHANNEL_COUNT must be positive, got %d", c.ChannelCount)
	}
	if c.SpeakTimeout <= 0 {
		return fmt.Errorf("SPEAK_TIMEOUT must be positive, got %d", c.SpeakTimeout)
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
