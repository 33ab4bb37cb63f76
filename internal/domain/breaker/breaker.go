// Package breaker implements the per-request circuit breaker that stops a
// provider's stage/strategy loop after a run of consecutive non-results.
package breaker

// State represents the current circuit breaker state.
type State int

const (
	// StateClosed allows further attempts.
	StateClosed State = iota
	// StateOpen is terminal for the request; remaining attempts are skipped.
	StateOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Breaker counts consecutive empty outcomes for one (request, provider) pair.
// It is constructed fresh per request and never shared: the owning provider
// unit is the only goroutine touching it, which is why there is no lock here.
// There is no half-open state either; recovery across requests is implicit
// because every request starts with a closed breaker.
type Breaker struct {
	threshold        int
	consecutiveEmpty int
	state            State
}

// New returns a closed breaker that opens once threshold consecutive empty
// outcomes are recorded. A threshold below 1 is coerced to 1 so a breaker can
// never be unopenable by accident.
func New(threshold int) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{threshold: threshold, state: StateClosed}
}

// RecordEmpty registers an attempt that yielded no records (empty, transport
// error, timeout or parse failure all count the same). The breaker opens the
// instant the consecutive count reaches the threshold.
func (b *Breaker) RecordEmpty() {
	if b.state == StateOpen {
		return
	}
	b.consecutiveEmpty++
	if b.consecutiveEmpty >= b.threshold {
		b.state = StateOpen
	}
}

// RecordSuccess resets the consecutive-empty counter. Protocol diagnostics do
// not call this: they neither count as empty nor clear the run.
func (b *Breaker) RecordSuccess() {
	if b.state == StateOpen {
		return
	}
	b.consecutiveEmpty = 0
}

// Open reports whether the breaker has tripped.
func (b *Breaker) Open() bool {
	return b.state == StateOpen
}

// State returns the current state.
func (b *Breaker) State() State {
	return b.state
}

// ConsecutiveEmpty returns the current run of empty outcomes.
func (b *Breaker) ConsecutiveEmpty() int {
	return b.consecutiveEmpty
}

// Threshold returns the configured trip threshold.
func (b *Breaker) Threshold() int {
	return b.threshold
}
