package capability

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LoadFunc loads a capability instance.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// MaxBackoff caps the wait between two load attempts.
const MaxBackoff = 24 * time.Hour

// RetryPolicy controls whether a failed load is attempted again.
// The zero value memoizes the first failure permanently.
type RetryPolicy struct {
	// MaxRetries is the number of loads attempted after the first failure.
	MaxRetries int

	// Backoff is the wait before the first retry. It doubles for every
	// further retry up to MaxBackoff.
	Backoff time.Duration
}

// Wait returns the wait before retry number retries+1.
func (p RetryPolicy) Wait(retries int) time.Duration {
	wait := p.Backoff
	for i := 0; i < retries && wait < MaxBackoff; i++ {
		wait *= 2
	}
	return min(wait, MaxBackoff)
}

// State is the load state of a Lazy capability.
type State int

const (
	// StateUnloaded means no load was attempted yet.
	StateUnloaded State = iota
	// StateLoaded means the capability is ready.
	StateLoaded
	// StateFailed means the last load failed.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Lazy loads a capability on first use and memoizes the outcome.
// It is safe for concurrent use; concurrent callers share a single load.
type Lazy[T any] struct {
	name   string
	load   LoadFunc[T]
	policy RetryPolicy
	now    func() time.Time

	mu          sync.Mutex
	state       State
	instance    T
	err         error
	attempts    int
	lastAttempt time.Time
}

// LazyOption configures a Lazy loader.
type LazyOption[T any] func(*Lazy[T])

// WithRetryPolicy sets the retry policy for failed loads.
func WithRetryPolicy[T any](p RetryPolicy) LazyOption[T] {
	return func(l *Lazy[T]) {
		l.policy = p
	}
}

// WithClock replaces the time source. It is used by tests.
func WithClock[T any](now func() time.Time) LazyOption[T] {
	return func(l *Lazy[T]) {
		l.now = now
	}
}

// NewLazy creates a lazy loader for the named capability.
func NewLazy[T any](name string, load LoadFunc[T], opts ...LazyOption[T]) *Lazy[T] {
	l := &Lazy[T]{
		name: name,
		load: load,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the capability name.
func (l *Lazy[T]) Name() string {
	return l.name
}

// Get returns the loaded capability, loading it on first use.
// A memoized failure returns an error wrapping ErrUnavailable and the
// original load error.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateLoaded:
		return l.instance, nil
	case StateFailed:
		if !l.retryDue() {
			var zero T
			return zero, l.err
		}
	}

	l.attempts++
	l.lastAttempt = l.now()
	instance, err := l.safeLoad(ctx)
	if err != nil {
		l.state = StateFailed
		l.err = fmt.Errorf("%w: %s: %w", ErrUnavailable, l.name, err)
		var zero T
		return zero, l.err
	}
	l.state = StateLoaded
	l.instance = instance
	l.err = nil
	return instance, nil
}

// Available loads the capability if needed and reports whether it is usable.
func (l *Lazy[T]) Available(ctx context.Context) bool {
	_, err := l.Get(ctx)
	return err == nil
}

// State returns the current load state without triggering a load.
func (l *Lazy[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Attempts returns the number of load attempts so far.
func (l *Lazy[T]) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// Err returns the memoized load error, if any.
func (l *Lazy[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// retryDue reports whether a failed load may be attempted again.
// Must be called with l.mu held.
func (l *Lazy[T]) retryDue() bool {
	retries := l.attempts - 1
	if retries >= l.policy.MaxRetries {
		return false
	}
	return !l.now().Before(l.lastAttempt.Add(l.policy.Wait(retries)))
}

// safeLoad runs the load function and converts a panic into an error.
func (l *Lazy[T]) safeLoad(ctx context.Context) (instance T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load panicked: %v", r)
		}
	}()
	if l.load == nil {
		return instance, ErrNotConfigured
	}
	return l.load(ctx)
}
