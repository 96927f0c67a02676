package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker("tts", 3, time.Second)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected initial state closed, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("tts", 3, time.Second)
	failing := func() error { return errors.New("remote failure") }

	for i := 0; i < 3; i++ {
		if err := cb.Call(failing); err == nil {
			t.Fatal("Expected failure")
		}
	}

	if cb.GetState() != StateOpen {
		t.Errorf("Expected open state after 3 failures, got %v", cb.GetState())
	}

	// Requests are now rejected without invoking the function
	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Function should not be invoked while circuit is open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("tts", 3, time.Second)

	cb.Call(func() error { return errors.New("fail") })
	cb.Call(func() error { return errors.New("fail") })
	cb.Call(func() error { return nil })
	cb.Call(func() error { return errors.New("fail") })
	cb.Call(func() error { return errors.New("fail") })

	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("tts", 1, 10*time.Millisecond)

	cb.Call(func() error { return errors.New("fail") })
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open state, got %v", cb.GetState())
	}

	time.Sleep(20 * time.Millisecond)

	// First call after the reset timeout is allowed as a probe
	err := cb.Call(func() error { return nil })
	if err != nil {
		t.Fatalf("Expected probe call to be allowed: %v", err)
	}
}

func TestCircuitBreaker_ReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker("tts", 1, 10*time.Millisecond)

	cb.Call(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	cb.Call(func() error { return errors.New("still failing") })

	if cb.GetState() != StateOpen {
		t.Errorf("Expected reopened circuit, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_ClosesAfterHalfOpenSuccesses(t *testing.T) {
	cb := NewCircuitBreaker("tts", 1, 10*time.Millisecond)

	cb.Call(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	// halfOpenMax successful probes close the circuit
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Probe %d rejected: %v", i, err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state after successful probes, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("tts", 1, time.Hour)

	cb.Call(func() error { return errors.New("fail") })
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open state, got %v", cb.GetState())
	}

	cb.Reset()

	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state after reset, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker("tts", 5, time.Second)

	cb.Call(func() error { return nil })
	cb.Call(func() error { return errors.New("fail") })

	state, requests, failures, rate := cb.GetStats()
	if state != StateClosed {
		t.Errorf("Expected closed state, got %v", state)
	}
	if requests != 2 {
		t.Errorf("Expected 2 requests, got %d", requests)
	}
	if failures != 1 {
		t.Errorf("Expected 1 failure, got %d", failures)
	}
	if rate != 50.0 {
		t.Errorf("Expected 50%% failure rate, got %v", rate)
	}
}
