// Package retry provides a reusable retry policy for unreliable HTTP
// dependencies: bounded attempts, a transient-failure predicate, and
// exponential backoff with jitter. Waits are cancellable via context.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// ErrExhausted wraps the last transient error after all attempts fail.
var ErrExhausted = errors.New("retries exhausted")

// transientError marks an error as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so the policy will retry it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err should be retried. Connection and
// timeout errors are transient even without an explicit Transient wrap.
func IsTransient(err error) bool {
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return false
}

// TransientStatus reports whether an HTTP status code indicates a
// condition worth retrying.
func TransientStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

// Policy controls retry behavior. Attempts made = MaxRetries + 1.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy matches the shape used by all three external clients.
var DefaultPolicy = Policy{
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   30 * time.Second,
}

// Do runs op up to MaxRetries+1 times. Non-transient errors return
// immediately. When the attempt budget runs out on a transient error,
// the last error is returned wrapped in ErrExhausted.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := p.wait(ctx, attempt); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// wait sleeps for the backoff delay of the given attempt, aborting
// promptly if ctx is canceled.
func (p Policy) wait(ctx context.Context, attempt int) error {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultPolicy.BaseDelay
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	// Small jitter to avoid synchronized retries across jobs.
	delay += time.Duration(rand.Int63n(int64(delay)/4 + 1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
