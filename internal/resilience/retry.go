// Package resilience provides retry policies and error classification for
// calls to external services.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how a failing call is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero means a single attempt.
	MaxRetries int

	// Wait is the pause before the first retry.
	Wait time.Duration

	// Multiplier scales Wait after each retry. Values <= 1 keep it constant.
	Multiplier float64

	// MaxWait caps the pause. Zero means no cap.
	MaxWait time.Duration

	// JitterFraction adds random jitter as a fraction of the pause
	// (0.0 = none, 0.5 = ±50%).
	JitterFraction float64

	// ShouldRetry overrides the default check, which retries transient
	// errors that are not critical.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry pause with the retry number
	// (starting at 1) and the error that caused it.
	OnRetry func(retry int, err error)
}

// ConstantPolicy retries up to maxRetries times with a fixed pause.
func ConstantPolicy(maxRetries int, wait time.Duration) Policy {
	return Policy{MaxRetries: maxRetries, Wait: wait}
}

// Attempts returns the total number of calls the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// DefaultShouldRetry retries transient errors unless they are also critical.
func DefaultShouldRetry(err error) bool {
	return IsTransient(err) && !IsCritical(err)
}

// Do runs fn under policy p. Context cancellation stops retries immediately.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal runs fn under policy p and returns the value of the first successful
// call. On failure the zero value and the last error are returned.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}

	var zero T
	attempts := p.Attempts()
	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !shouldRetry(err) || attempt >= attempts-1 {
			return zero, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.pause(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

func (p Policy) pause(attempt int) time.Duration {
	delay := float64(p.Wait)
	if p.Multiplier > 1 {
		delay *= math.Pow(p.Multiplier, float64(attempt))
	}
	if p.MaxWait > 0 && delay > float64(p.MaxWait) {
		delay = float64(p.MaxWait)
	}
	if p.JitterFraction > 0 {
		jitterRange := delay * p.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(service, operation string) func(int, error) {
	return func(retry int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("retry", retry),
			zap.Error(err),
		)
	}
}
