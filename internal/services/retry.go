package services

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultRetryMaxAttempts = 5
	defaultRetryInitialWait = 4 * time.Second
)

// RetryConfig controls the backoff behavior of Retry.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// InitialDelay is the first backoff sleep; each retry doubles it.
	InitialDelay time.Duration
	// Sleep overrides how backoff waits are performed (tests inject a
	// recorder here). Nil uses a context-aware timer.
	Sleep func(context.Context, time.Duration) error
}

// DefaultRetryConfig returns the standard backoff schedule: five retries at
// 4s, 8s, 16s, 32s, 64s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: defaultRetryMaxAttempts, InitialDelay: defaultRetryInitialWait}
}

// Retry invokes fn, retrying with exponential backoff only when the failure
// classifies as rate limited. Permanent errors propagate immediately without
// sleeping; exhausting the retry budget rethrows the last rate-limit error
// unchanged so callers see the original cause.
func Retry[T any](ctx context.Context, cfg RetryConfig, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultRetryInitialWait
	}

	delay := cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRateLimited(err) {
			return zero, err
		}
		if attempt >= cfg.MaxRetries {
			return zero, fmt.Errorf("%s: retries exhausted: %w", op, err)
		}
		if sleepErr := retrySleep(ctx, cfg, delay); sleepErr != nil {
			return zero, sleepErr
		}
		delay *= 2
	}
}

func retrySleep(ctx context.Context, cfg RetryConfig, delay time.Duration) error {
	if cfg.Sleep != nil {
		return cfg.Sleep(ctx, delay)
	}
	return Sleep(ctx, delay)
}

// Sleep waits for the given duration or until the context is canceled.
func Sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
