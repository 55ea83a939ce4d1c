// Package circuitbreaker provides a per-peer circuit breaker with
// closed → open → half-open state transitions, used to stop hammering an
// unreachable relay peer.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal: requests flow through
	StateOpen                  // Tripped: requests are rejected
	StateHalfOpen              // Probing: one request allowed to test recovery
)

// String returns the state name.
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

var stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fraudlens",
	Subsystem: "circuitbreaker",
	Name:      "state_transitions_total",
	Help:      "Circuit breaker state transitions by peer, from-state, and to-state.",
}, []string{"peer", "from_state", "to_state"})

func init() {
	prometheus.MustRegister(stateTransitions)
}

type entry struct {
	state       State
	failures    int
	lastFailure time.Time
}

// Breaker is a per-peer circuit breaker. It counts consecutive failures per
// peer and trips open when they exceed the threshold. After openDuration,
// the circuit moves to half-open and allows one probe request.
type Breaker struct {
	mu           sync.Mutex
	entries      map[string]*entry
	threshold    int
	openDuration time.Duration
}

// New creates a circuit breaker that opens after threshold consecutive
// failures and stays open for openDuration before probing.
func New(threshold int, openDuration time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openDuration <= 0 {
		openDuration = 30 * time.Second
	}
	return &Breaker{
		entries:      make(map[string]*entry),
		threshold:    threshold,
		openDuration: openDuration,
	}
}

// Allow reports whether a request to peer should proceed. An open circuit
// whose openDuration has elapsed transitions to half-open and lets one
// probe through.
func (b *Breaker) Allow(peer string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.entry(peer)
	switch e.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(e.lastFailure) >= b.openDuration {
			b.transition(peer, e, StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		// One probe is already in flight; reject until it resolves.
		return false
	}
	return true
}

// Success records a successful request, closing the circuit.
func (b *Breaker) Success(peer string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.entry(peer)
	e.failures = 0
	if e.state != StateClosed {
		b.transition(peer, e, StateClosed)
	}
}

// Failure records a failed request, tripping the circuit when the
// consecutive-failure threshold is reached.
func (b *Breaker) Failure(peer string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.entry(peer)
	e.failures++
	e.lastFailure = time.Now()

	if e.state == StateHalfOpen || e.failures >= b.threshold {
		if e.state != StateOpen {
			b.transition(peer, e, StateOpen)
		}
	}
}

// CurrentState returns the circuit state for peer.
func (b *Breaker) CurrentState(peer string) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entry(peer).state
}

func (b *Breaker) entry(peer string) *entry {
	e, ok := b.entries[peer]
	if !ok {
		e = &entry{state: StateClosed}
		b.entries[peer] = e
	}
	return e
}

// transition must be called with the lock held.
func (b *Breaker) transition(peer string, e *entry, to State) {
	stateTransitions.WithLabelValues(peer, e.state.String(), to.String()).Inc()
	e.state = to
	if to == StateHalfOpen {
		e.failures = b.threshold // one more failure re-opens immediately
	}
}
