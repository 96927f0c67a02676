package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Playback session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lecture_gateway_active_playback_sessions",
		Help: "Number of playback sessions in flight (0 or 1)",
	})

	playbackSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecture_gateway_playback_sessions_total",
		Help: "Total playback sessions by outcome",
	}, []string{"outcome"}) // played, no_audio, remote_error, decode_error, device_error, rejected

	playbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lecture_gateway_playback_duration_seconds",
		Help:    "Wall-clock duration of a playback session from request to completion",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// TTS metrics
	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecture_gateway_tts_requests_total",
		Help: "Total number of TTS requests",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lecture_gateway_tts_latency_seconds",
		Help:    "TTS request latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Lecture structuring metrics
	lectureRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecture_gateway_lecture_requests_total",
		Help: "Total number of lecture structuring requests",
	}, []string{"status"})

	lectureLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lecture_gateway_lecture_latency_seconds",
		Help:    "Lecture structuring latency in seconds",
		Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	})

	// Decode metrics
	decodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecture_gateway_decode_failures_total",
		Help: "Total PCM decode failures by kind",
	}, []string{"kind"}) // encoding, truncated

	audioBytesPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lecture_gateway_audio_bytes_played_total",
		Help: "Total raw PCM bytes submitted to the output device",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecture_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lecture_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecture_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// RecordSessionStart marks a playback session as in flight.
func RecordSessionStart() {
	activeSessions.Set(1)
}

// RecordSessionEnd records a finished session with its outcome and duration.
func RecordSessionEnd(outcome string, start time.Time) {
	activeSessions.Set(0)
	playbackSessions.WithLabelValues(outcome).Inc()
	playbackDuration.Observe(time.Since(start).Seconds())
}

// RecordSessionRejected counts a speak request dropped by the single-flight guard.
func RecordSessionRejected() {
	playbackSessions.WithLabelValues("rejected").Inc()
}

// RecordTTSRequest records one TTS call with its latency.
func RecordTTSRequest(success bool, start time.Time) {
	status := "success"
	if !success {
		status = "error"
	}
	ttsRequests.WithLabelValues(status).Inc()
	ttsLatency.Observe(time.Since(start).Seconds())
}

// RecordLectureRequest records one lecture structuring call with its latency.
func RecordLectureRequest(success bool, start time.Time) {
	status := "success"
	if !success {
		status = "error"
	}
	lectureRequests.WithLabelValues(status).Inc()
	lectureLatency.Observe(time.Since(start).Seconds())
}

// RecordDecodeFailure counts a decode failure by taxonomy kind.
func RecordDecodeFailure(kind string) {
	decodeFailures.WithLabelValues(kind).Inc()
}

// RecordAudioBytesPlayed counts raw PCM bytes handed to the output device.
func RecordAudioBytesPlayed(n int64) {
	audioBytesPlayed.Add(float64(n))
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
