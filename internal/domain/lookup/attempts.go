package lookup

import (
	"sync"
	"time"
)

// AttemptStatus is the recorded outcome of one query attempt.
type AttemptStatus string

const (
	// AttemptSuccess means the attempt yielded at least one record.
	AttemptSuccess AttemptStatus = "success"
	// AttemptEmpty means the provider answered cleanly with zero records.
	AttemptEmpty AttemptStatus = "empty"
	// AttemptError covers transport failures and unparseable responses.
	AttemptError AttemptStatus = "error"
	// AttemptDiagnostic means the endpoint rejected the query shape itself.
	AttemptDiagnostic AttemptStatus = "diagnostic"
	// AttemptTimeout means the per-attempt budget elapsed.
	AttemptTimeout AttemptStatus = "timeout"
	// AttemptSkipped marks an attempt that was planned but never issued
	// because the provider's breaker had already opened.
	AttemptSkipped AttemptStatus = "skipped"
	// AttemptNotApplicable marks the id-lookup short-circuit: the term carries
	// no recognizable identifier, so the provider bows out without a network
	// call. Intentional, not a failure.
	AttemptNotApplicable AttemptStatus = "not_applicable"
)

// CountsAsEmpty reports whether the status feeds the consecutive-empty
// breaker counter. Diagnostics stay out deliberately: a rejected query shape
// says nothing about whether the data is there.
func (s AttemptStatus) CountsAsEmpty() bool {
	switch s {
	case AttemptEmpty, AttemptError, AttemptTimeout:
		return true
	default:
		return false
	}
}

// QueryAttempt is one append-only log record. Never mutated after creation
// and never used for control flow; it exists so callers and tests can see
// which stages and strategies ran and why a provider returned nothing.
type QueryAttempt struct {
	Provider   string        `json:"provider"`
	Stage      string        `json:"stage"`
	Strategy   string        `json:"strategy"`
	Query      string        `json:"query,omitempty"`
	Status     AttemptStatus `json:"status"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// AttemptLog is the engine-wide append-only attempt collection for a single
// request. Provider units append concurrently; nothing reads another unit's
// entries mid-flight, so a plain mutex around the slice is all the
// coordination appends need.
type AttemptLog struct {
	mu      sync.Mutex
	entries []QueryAttempt
}

// NewAttemptLog returns an empty log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

// Append records one attempt.
func (l *AttemptLog) Append(a QueryAttempt) {
	l.mu.Lock()
	l.entries = append(l.entries, a)
	l.mu.Unlock()
}

// Snapshot returns a copy of all entries appended so far.
func (l *AttemptLog) Snapshot() []QueryAttempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]QueryAttempt, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of recorded attempts.
func (l *AttemptLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
