package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errProvider = errors.New("provider down")

func fail(context.Context) (int, error) { return 0, errProvider }
func succeed(context.Context) (int, error) { return 1, nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("video", CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := Call(ctx, cb, fail); !errors.Is(err, errProvider) {
			t.Fatalf("call %d: expected provider error, got %v", i, err)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	_, err := Call(ctx, cb, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker("video", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = Call(ctx, cb, fail)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	now = now.Add(11 * time.Second)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}

	// Failing probe reopens.
	_, _ = Call(ctx, cb, fail)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open after failed probe, got %s", cb.State())
	}

	now = now.Add(11 * time.Second)
	if _, err := Call(ctx, cb, succeed); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_CallerCancelDoesNotTrip(t *testing.T) {
	cb := NewCircuitBreaker("web", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = Call(ctx, cb, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestBreakers_GetReturnsSameInstance(t *testing.T) {
	b := NewBreakers(DefaultCircuitBreakerConfig())
	if b.Get("VIDEO") != b.Get("VIDEO") {
		t.Error("expected same breaker for same name")
	}
	if b.Get("VIDEO") == b.Get("ARTICLE") {
		t.Error("expected distinct breakers per name")
	}
	states := b.States()
	if states["VIDEO"] != "closed" || len(states) != 2 {
		t.Errorf("unexpected states %v", states)
	}
}

func TestCircuitState_String(t *testing.T) {
	if CircuitHalfOpen.String() != "half-open" || CircuitState(9).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
