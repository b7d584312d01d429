package coordinator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/carebridge/synckit/logger"
	"github.com/carebridge/synckit/retry"
	"github.com/carebridge/synckit/telemetry"
)

// Options controls one Run call.
type Options struct {
	// ShowLoading drives the section's loading flag around the operation.
	ShowLoading bool
	// RetryOnError runs the operation through the retry executor.
	RetryOnError bool
	// CacheKey, when set, enqueues the operation for offline replay if it
	// fails while the device is offline.
	CacheKey string
}

// DefaultOptions enables loading flags and retries, with no offline replay.
func DefaultOptions() Options {
	return Options{ShowLoading: true, RetryOnError: true}
}

// Run executes op for a UI section. The section's loading flag is set for
// the duration of the call and cleared on every exit path. On success the
// current error is cleared and the result returned. On failure, after the
// retry policy is exhausted or for a non-retryable error, the error is
// surfaced as the current error record and returned to the caller; if the
// device is offline and a CacheKey was supplied, the operation is also
// queued for replay once connectivity returns.
func Run[T any](ctx context.Context, c *Coordinator, section string, op func() (T, error), opts Options) (result T, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sync."+section,
		attribute.String("section", section))
	defer span.End()

	if opts.ShowLoading {
		c.SetLoading(section, true)
		defer c.SetLoading(section, false)
	}

	start := c.clk.Now()

	if opts.RetryOnError {
		cfg := c.retryCfg
		userOnRetry := cfg.OnRetry
		cfg.OnRetry = func(attempt int, retryErr error, delay time.Duration) {
			c.log.Debug("retrying operation", logger.Fields(
				logger.FieldSection, section,
				logger.FieldAttempt, attempt,
				logger.FieldDelay, delay.Milliseconds(),
			))
			if c.recorder != nil {
				c.recorder.RecordRetry(ctx, section)
			}
			if userOnRetry != nil {
				userOnRetry(attempt, retryErr, delay)
			}
		}
		result, err = retry.Do(ctx, cfg, op)
	} else {
		result, err = op()
	}

	elapsed := c.clk.Now().Sub(start)
	if err == nil {
		c.ClearError()
		c.record(ctx, section, "ok", elapsed)
		return result, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	c.ShowError(err, section)
	if c.queue != nil && !c.queue.Online() && opts.CacheKey != "" {
		if _, qErr := c.queue.Add(opts.CacheKey, section); qErr != nil {
			c.log.Warn("failed to queue offline action", logger.Fields(
				logger.FieldSection, section,
				logger.FieldError, qErr.Error(),
			))
		}
	}
	c.record(ctx, section, "error", elapsed)

	var zero T
	return zero, err
}

// RunFunc is Run for operations that return only an error.
func RunFunc(ctx context.Context, c *Coordinator, section string, op func() error, opts Options) error {
	_, err := Run(ctx, c, section, func() (struct{}, error) {
		return struct{}{}, op()
	}, opts)
	return err
}

func (c *Coordinator) record(ctx context.Context, section, outcome string, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordOperation(ctx, section, outcome, d)
	}
}
