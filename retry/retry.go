package retry

import (
	"context"
	"math"
	"time"

	"github.com/carebridge/synckit/clock"
	"github.com/carebridge/synckit/errors"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool
	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Clock schedules backoff sleeps. Defaults to the real clock.
	Clock clock.Clock
}

// DefaultConfig returns the defaults the coordinator uses.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		RetryIf:       errors.IsRetryable,
	}
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = errors.IsRetryable
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}

// Delay returns the backoff before the retry that follows the given failed
// attempt. Attempt numbers are 1-based. The curve is deterministic:
// min(base * factor^(attempt-1), max). No jitter.
func Delay(attempt int, base, max time.Duration, factor float64) time.Duration {
	d := float64(base) * math.Pow(factor, float64(attempt-1))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}

// Do executes op with retry logic. A non-retryable error is returned
// immediately; a retryable one is retried with exponential backoff until
// MaxAttempts is reached, then returned unchanged. The first success wins.
func Do[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	var zero T
	cfg.applyDefaults()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := op()
		if err == nil {
			return result, nil
		}

		if !cfg.RetryIf(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			return zero, err
		}

		delay := Delay(attempt, cfg.BaseDelay, cfg.MaxDelay, cfg.BackoffFactor)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if err := clock.Sleep(ctx, cfg.Clock, delay); err != nil {
			return zero, err
		}
	}
}

// DoFunc executes a function that returns only an error.
func DoFunc(ctx context.Context, cfg Config, fn func() error) error {
	_, err := Do(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
