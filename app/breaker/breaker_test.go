package breaker

import (
	"sync"
	"testing"
	"time"
)

func newTestBreaker(settings Settings) (*Breaker, *time.Time) {
	b := New(settings)
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }
	return b, &current
}

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(Settings{})

	if b.State() != StateClosed {
		t.Errorf("Expected initial state closed, got %s", b.State())
	}
	if !b.Allow() {
		t.Errorf("Closed breaker should allow calls")
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Settings{FailureThreshold: 3})

	b.OnFailure()
	b.OnFailure()
	if b.State() != StateClosed {
		t.Errorf("Breaker should stay closed below threshold, got %s", b.State())
	}

	b.OnFailure()
	if b.State() != StateOpen {
		t.Errorf("Breaker should open after 3 consecutive failures, got %s", b.State())
	}
	if b.Allow() {
		t.Errorf("Open breaker should not allow calls")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(Settings{FailureThreshold: 3})

	b.OnFailure()
	b.OnFailure()
	b.OnSuccess()
	b.OnFailure()
	b.OnFailure()

	if b.State() != StateClosed {
		t.Errorf("Non-consecutive failures should not open the breaker, got %s", b.State())
	}
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b, clock := newTestBreaker(Settings{FailureThreshold: 1, ResetTimeout: time.Minute, HalfOpenMaxCalls: 2})

	b.OnFailure()
	if b.Allow() {
		t.Fatalf("Breaker should be open right after tripping")
	}

	*clock = clock.Add(59 * time.Second)
	if b.Allow() {
		t.Errorf("Breaker should stay open before reset timeout elapses")
	}

	*clock = clock.Add(2 * time.Second)
	if !b.Allow() {
		t.Errorf("Breaker should admit a probe call after reset timeout")
	}
	if b.State() != StateHalfOpen {
		t.Errorf("Expected half_open state, got %s", b.State())
	}

	// Second probe slot is still available, third is not.
	if !b.Allow() {
		t.Errorf("Second half-open probe should be allowed")
	}
	if b.Allow() {
		t.Errorf("Half-open probes should be bounded by HalfOpenMaxCalls")
	}
}

func TestBreaker_HalfOpenClosesAfterSuccesses(t *testing.T) {
	b, clock := newTestBreaker(Settings{FailureThreshold: 1, ResetTimeout: time.Minute, HalfOpenMaxCalls: 3, HalfOpenSuccesses: 2})

	b.OnFailure()
	*clock = clock.Add(time.Minute)
	if !b.Allow() {
		t.Fatalf("Probe call should be allowed after cooldown")
	}

	b.OnSuccess()
	if b.State() != StateHalfOpen {
		t.Errorf("One success should not close the circuit yet, got %s", b.State())
	}

	b.OnSuccess()
	if b.State() != StateClosed {
		t.Errorf("Expected closed after 2 half-open successes, got %s", b.State())
	}

	snap := b.CurrentState()
	if snap.ConsecutiveFailures != 0 {
		t.Errorf("Closing should zero the failure count, got %d", snap.ConsecutiveFailures)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(Settings{FailureThreshold: 5, ResetTimeout: time.Minute})

	for i := 0; i < 5; i++ {
		b.OnFailure()
	}
	*clock = clock.Add(time.Minute)
	if !b.Allow() {
		t.Fatalf("Probe call should be allowed after cooldown")
	}

	b.OnFailure()
	if b.State() != StateOpen {
		t.Errorf("Any half-open failure should reopen the circuit, got %s", b.State())
	}

	// The cooldown restarts from the half-open failure.
	*clock = clock.Add(30 * time.Second)
	if b.Allow() {
		t.Errorf("Breaker should stay open until the restarted cooldown elapses")
	}
	*clock = clock.Add(31 * time.Second)
	if !b.Allow() {
		t.Errorf("Breaker should probe again after the restarted cooldown")
	}
}

func TestBreaker_TripOpensImmediately(t *testing.T) {
	b, _ := newTestBreaker(Settings{FailureThreshold: 5})

	b.Trip()
	if b.State() != StateOpen {
		t.Errorf("Trip should open the circuit immediately, got %s", b.State())
	}
	if b.Allow() {
		t.Errorf("Tripped breaker should not allow calls")
	}
}

func TestBreaker_ConcurrentAccess(t *testing.T) {
	b := New(Settings{FailureThreshold: 10})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Allow()
				if n%2 == 0 {
					b.OnSuccess()
				} else {
					b.OnFailure()
				}
			}
		}(i)
	}
	wg.Wait()

	// No assertion beyond not panicking and ending in a valid state.
	state := b.State()
	if state != StateClosed && state != StateOpen && state != StateHalfOpen {
		t.Errorf("Breaker ended in invalid state %d", state)
	}
}
