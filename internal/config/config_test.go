package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	defer os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.GeminiAPIKey != "test-gemini-key" {
		t.Errorf("Expected GeminiAPIKey 'test-gemini-key', got '%s'", cfg.GeminiAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("GEMINI_API_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when GEMINI_API_KEY is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	defer os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.LectureModel != "gemini-2.5-flash" {
		t.Errorf("Expected default LectureModel 'gemini-2.5-flash', got '%s'", cfg.LectureModel)
	}

	if cfg.TTSModel != "gemini-2.5-flash-preview-tts" {
		t.Errorf("Expected default TTSModel 'gemini-2.5-flash-preview-tts', got '%s'", cfg.TTSModel)
	}

	if cfg.TTSVoice != "Zephyr" {
		t.Errorf("Expected default TTSVoice 'Zephyr', got '%s'", cfg.TTSVoice)
	}

	if cfg.SampleRate != 24000 {
		t.Errorf("Expected default SampleRate 24000, got %d", cfg.SampleRate)
	}

	if cfg.ChannelCount != 1 {
		t.Errorf("Expected default ChannelCount 1, got %d", cfg.ChannelCount)
	}

	if cfg.SpeakTimeout != 30 {
		t.Errorf("Expected default SpeakTimeout 30, got %d", cfg.SpeakTimeout)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected MetricsEnabled to default to true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	os.Setenv("SAMPLE_RATE", "48000")
	os.Setenv("TTS_VOICE", "Kore")
	defer func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("SAMPLE_RATE")
		os.Unsetenv("TTS_VOICE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SampleRate != 48000 {
		t.Errorf("Expected SampleRate 48000, got %d", cfg.SampleRate)
	}
	if cfg.TTSVoice != "Kore" {
		t.Errorf("Expected TTSVoice 'Kore', got '%s'", cfg.TTSVoice)
	}
}

func TestLoad_InvalidAudioConfig(t *testing.T) {
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	os.Setenv("CHANNEL_COUNT", "0")
	defer func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("CHANNEL_COUNT")
	}()

	_, err := Load()
	if err == nil {
		t.Error("Expected error when CHANNEL_COUNT is zero")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_CONFIG_KEY", "value")
	defer os.Unsetenv("TEST_CONFIG_KEY")

	if got := GetEnv("TEST_CONFIG_KEY", "fallback"); got != "value" {
		t.Errorf("Expected 'value', got '%s'", got)
	}

	if got := GetEnv("TEST_CONFIG_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected 'fallback', got '%s'", got)
	}
}
