// Package retry implements exponential-backoff retries for API
// operations. Policies are built from the named presets in the
// configuration; the retry engine itself is policy-agnostic.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ecotrace/ecotrace-go/internal/core"
)

// Policy describes one retry scenario.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// Delay is the wait before the first retry.
	Delay time.Duration

	// BackoffMultiplier scales the delay after each failed attempt.
	BackoffMultiplier float64

	// MaxDelay caps the grown delay.
	MaxDelay time.Duration

	// RetryCondition decides whether an error is worth retrying.
	// Nil means DefaultCondition.
	RetryCondition func(error) bool
}

// FromSettings builds a Policy from a configured preset.
func FromSettings(s core.RetrySettings) Policy {
	return Policy{
		MaxAttempts:       s.MaxAttempts,
		Delay:             s.Delay,
		BackoffMultiplier: s.BackoffMultiplier,
		MaxDelay:          s.MaxDelay,
	}
}

// WithCondition returns a copy of the policy using the given condition.
func (p Policy) WithCondition(cond func(error) bool) Policy {
	p.RetryCondition = cond
	return p
}

// DefaultCondition reports whether an error should be retried. Errors
// carrying a Retryable method answer for themselves; otherwise
// authentication and validation failures are recognized by message and
// everything else is presumed transient.
func DefaultCondition(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}

	msg := err.Error()
	if strings.Contains(msg, "Authentication failed") ||
		strings.Contains(msg, "Access denied") ||
		strings.Contains(msg, "Invalid request") {
		return false
	}
	return true
}

// Do runs op until it succeeds, the policy is exhausted, the error is
// deemed permanent, or the context is canceled. There is no wait before
// the first attempt. The last attempt's error is returned unwrapped so
// callers can match on the typed taxonomy.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	cond := p.RetryCondition
	if cond == nil {
		cond = DefaultCondition
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.Delay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || !cond(err) {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return zero, lastErr
}
