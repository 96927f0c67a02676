package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyloop/lecture-gateway/internal/api"
	"github.com/studyloop/lecture-gateway/internal/config"
	"github.com/studyloop/lecture-gateway/internal/lecture"
	"github.com/studyloop/lecture-gateway/internal/observability"
	"github.com/studyloop/lecture-gateway/internal/playback"
	"github.com/studyloop/lecture-gateway/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("lecture_model", cfg.LectureModel).
		Str("tts_model", cfg.TTSModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Lecture Gateway Service starting")

	ctx := context.Background()

	// Lecture structuring client
	generator, err := lecture.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create lecture client")
	}

	// Lecture store: Redis when configured, in-memory otherwise
	var store lecture.Store
	var redisStore *lecture.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = lecture.NewRedisStore(cfg.RedisURL, time.Duration(cfg.LectureTTL)*time.Second)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		store = redisStore
		logger.Info().Msg("Using Redis lecture store")
	} else {
		store = lecture.NewMemoryStore()
		logger.Info().Msg("Using in-memory lecture store")
	}

	// Speech synthesis client and playback controller
	speechClient := tts.NewGeminiClient(cfg)
	deviceFactory := func(sampleRate, channels int) (playback.Device, error) {
		return playback.NewPlayerDevice(cfg.AudioPlayerCmd, sampleRate, channels)
	}
	controller := playback.NewController(cfg, speechClient, deviceFactory)

	// Playback state events over websocket
	hub := api.NewEventHub(api.SplitOrigins(cfg.CorsAllowedOrigins))
	controller.OnTransition(func(s playback.State) {
		hub.BroadcastState(s.String())
	})

	// Readiness checks
	readyChecks := map[string]observability.HealthCheckFunc{
		"speech_config": func(ctx context.Context) (bool, error) {
			if cfg.GeminiAPIKey == "" {
				return false, fmt.Errorf("missing Gemini API key")
			}
			return true, nil
		},
	}
	if redisStore != nil {
		readyChecks["redis"] = func(ctx context.Context) (bool, error) {
			if err := redisStore.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	handler := api.NewHandler(generator, store, controller)
	router := api.NewRouter(handler, hub, api.RouterConfig{
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		MetricsEnabled:     cfg.MetricsEnabled,
		ReadyChecks:        readyChecks,
	})

	if cfg.MetricsEnabled {
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/v1", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	hub.Close()
	if err := controller.Close(); err != nil {
		logger.Warn().Err(err).Msg("Closing audio device failed")
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.Warn().Err(err).Msg("Closing Redis connection failed")
		}
	}

	logger.Info().Msg("Server exited gracefully")
}
