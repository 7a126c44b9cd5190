package breaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Settings controls the failure thresholds and recovery behavior of a Breaker.
// Zero values are replaced with defaults matching typical source politeness:
// 5 consecutive failures to open, 60s cooldown, 3 half-open probes.
type Settings struct {
	FailureThreshold  int
	ResetTimeout      time.Duration
	HalfOpenMaxCalls  int
	HalfOpenSuccesses int
}

// Breaker is a per-source circuit breaker. State is owned exclusively by the
// source's own search attempts; safe for concurrent Allow/OnSuccess/OnFailure
// from multiple in-flight aggregations.
type Breaker struct {
	mu sync.Mutex

	failureThreshold  int
	resetTimeout      time.Duration
	halfOpenMaxCalls  int
	halfOpenSuccesses int

	state               State
	consecutiveFailures int
	halfOpenCalls       int
	halfOpenSuccessRun  int
	lastFailureAt       time.Time

	now func() time.Time
}

// Snapshot is a point-in-time copy of breaker state for diagnostics.
type Snapshot struct {
	State               State
	ConsecutiveFailures int
	LastFailureAt       time.Time
}

func New(settings Settings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.ResetTimeout <= 0 {
		settings.ResetTimeout = 60 * time.Second
	}
	if settings.HalfOpenMaxCalls <= 0 {
		settings.HalfOpenMaxCalls = 3
	}
	if settings.HalfOpenSuccesses <= 0 {
		settings.HalfOpenSuccesses = settings.HalfOpenMaxCalls
	}

	return &Breaker{
		failureThreshold:  settings.FailureThreshold,
		resetTimeout:      settings.ResetTimeout,
		halfOpenMaxCalls:  settings.HalfOpenMaxCalls,
		halfOpenSuccesses: settings.HalfOpenSuccesses,
		state:             StateClosed,
		now:               time.Now,
	}
}

// Allow reports whether a call to the source may proceed. An Open breaker
// whose cooldown has elapsed transitions to HalfOpen and admits a bounded
// number of probe calls.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if b.now().Sub(b.lastFailureAt) >= b.resetTimeout {
			b.state = StateHalfOpen
			b.consecutiveFailures = 0
			b.halfOpenCalls = 1
			b.halfOpenSuccessRun = 0
			return true
		}
		return false

	case StateHalfOpen:
		if b.halfOpenCalls < b.halfOpenMaxCalls {
			b.halfOpenCalls++
			return true
		}
		return false
	}

	return false
}

// OnSuccess records a successful call. In HalfOpen, enough consecutive
// successes close the circuit and zero the failure count.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.halfOpenSuccessRun++
		if b.halfOpenSuccessRun >= b.halfOpenSuccesses {
			b.state = StateClosed
			b.consecutiveFailures = 0
			b.halfOpenCalls = 0
			b.halfOpenSuccessRun = 0
		}
		return
	}

	b.consecutiveFailures = 0
}

// OnFailure records a failed call. Any failure during HalfOpen reopens the
// circuit immediately and restarts the cooldown.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	b.lastFailureAt = b.now()

	if b.state == StateHalfOpen || b.consecutiveFailures >= b.failureThreshold {
		b.open()
	}
}

// Trip opens the circuit immediately, regardless of the failure count.
// Used for failures where retrying cannot help, e.g. rejected credentials.
func (b *Breaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = b.failureThreshold
	b.lastFailureAt = b.now()
	b.open()
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.halfOpenCalls = 0
	b.halfOpenSuccessRun = 0
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StateName returns the state as its wire label.
func (b *Breaker) StateName() string {
	return b.State().String()
}

func (b *Breaker) CurrentState() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		LastFailureAt:       b.lastFailureAt,
	}
}
