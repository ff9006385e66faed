package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks backend connection failures: timeouts, refused
// connections and dropped sockets.
var ErrNetwork = errors.New("cache backend unreachable")

// RetryableError marks a backend error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or an error it wraps, is transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff retries transient backend errors with doubling delays.
type Backoff struct {
	Attempts int           // total calls, at least one
	Delay    time.Duration // wait before the first retry
}

// DefaultBackoff is used by backends configured without one.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// Do calls fn until it succeeds, fails permanently, runs out of attempts or
// ctx is done. The last error is returned unchanged.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
