package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/carebridge/synckit/errors"
	"github.com/carebridge/synckit/offline"
	"github.com/carebridge/synckit/retry"
)

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
		RetryIf:       func(error) bool { return true },
	}
}

func TestRun_Success(t *testing.T) {
	c := New(WithRetryConfig(fastRetry()))

	result, err := Run(context.Background(), c, "clients", func() (string, error) {
		if !c.IsLoading("clients") {
			t.Error("expected loading flag set during operation")
		}
		return "loaded", nil
	}, DefaultOptions())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "loaded" {
		t.Errorf("expected 'loaded', got %s", result)
	}
	if c.IsLoading("clients") {
		t.Error("expected loading flag cleared after success")
	}
	if c.CurrentError() != nil {
		t.Error("expected no current error")
	}
}

func TestRun_SuccessClearsPreviousError(t *testing.T) {
	c := New(WithRetryConfig(fastRetry()))
	c.ShowError(errors.New("stale"), "clients")

	_, err := Run(context.Background(), c, "clients", func() (int, error) {
		return 1, nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.CurrentError() != nil {
		t.Error("expected previous error cleared on success")
	}
}

func TestRun_FailureSurfacesAndRethrows(t *testing.T) {
	c := New(WithRetryConfig(fastRetry()))
	opErr := errors.New("backend down")

	calls := 0
	_, err := Run(context.Background(), c, "medications", func() (string, error) {
		calls++
		return "", opErr
	}, DefaultOptions())

	if !errors.Is(err, opErr) {
		t.Fatalf("expected original error back, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if c.IsLoading("medications") {
		t.Error("expected loading flag cleared after failure")
	}

	rec := c.CurrentError()
	if rec == nil {
		t.Fatal("expected current error")
	}
	if rec.Context != "medications" {
		t.Errorf("expected context 'medications', got %s", rec.Context)
	}
	if !errors.Is(rec.Err, opErr) {
		t.Errorf("expected record to carry original error, got %v", rec.Err)
	}
}

func TestRun_NonRetryableFailsOnce(t *testing.T) {
	c := New() // default policy classifies via the errors package

	calls := 0
	_, err := Run(context.Background(), c, "clients", func() (string, error) {
		calls++
		return "", apperrors.Validation("name required")
	}, DefaultOptions())

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", calls)
	}
}

func TestRun_RetryDisabled(t *testing.T) {
	c := New(WithRetryConfig(fastRetry()))

	calls := 0
	opts := DefaultOptions()
	opts.RetryOnError = false
	_, _ = Run(context.Background(), c, "clients", func() (string, error) {
		calls++
		return "", errors.New("fail")
	}, opts)

	if calls != 1 {
		t.Errorf("expected 1 attempt with retries disabled, got %d", calls)
	}
}

func TestRun_LoadingDisabled(t *testing.T) {
	c := New(WithRetryConfig(fastRetry()))

	opts := DefaultOptions()
	opts.ShowLoading = false
	_, _ = Run(context.Background(), c, "clients", func() (string, error) {
		if c.IsLoading("clients") {
			t.Error("expected no loading flag with ShowLoading off")
		}
		return "", nil
	}, opts)
}

func TestRun_OfflineFailureQueuesWithCacheKey(t *testing.T) {
	q := offline.NewQueue(offline.Config{})
	q.SetOnline(context.Background(), false)
	c := New(WithRetryConfig(fastRetry()), WithQueue(q))

	opts := DefaultOptions()
	opts.CacheKey = "saveMedication"
	_, err := Run(context.Background(), c, "medications", func() (string, error) {
		return "", errors.New("no network")
	}, opts)

	if err == nil {
		t.Fatal("expected error rethrown despite queueing")
	}
	pending := q.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued action, got %d", len(pending))
	}
	if pending[0].Kind != "saveMedication" {
		t.Errorf("expected kind saveMedication, got %s", pending[0].Kind)
	}
}

func TestRun_OfflineFailureWithoutCacheKeyDoesNotQueue(t *testing.T) {
	q := offline.NewQueue(offline.Config{})
	q.SetOnline(context.Background(), false)
	c := New(WithRetryConfig(fastRetry()), WithQueue(q))

	_, _ = Run(context.Background(), c, "medications", func() (string, error) {
		return "", errors.New("no network")
	}, DefaultOptions())

	if len(q.Pending()) != 0 {
		t.Errorf("expected nothing queued, got %d", len(q.Pending()))
	}
}

func TestRun_OnlineFailureDoesNotQueue(t *testing.T) {
	q := offline.NewQueue(offline.Config{})
	c := New(WithRetryConfig(fastRetry()), WithQueue(q))

	opts := DefaultOptions()
	opts.CacheKey = "saveMedication"
	_, _ = Run(context.Background(), c, "medications", func() (string, error) {
		return "", errors.New("server error")
	}, opts)

	if len(q.Pending()) != 0 {
		t.Errorf("online failures must not queue, got %d", len(q.Pending()))
	}
}

func TestLoading_SectionsIndependent(t *testing.T) {
	c := New()

	c.SetLoading("clients", true)
	c.SetLoading("messages", true)
	c.SetLoading("clients", false)

	if c.IsLoading("clients") {
		t.Error("expected clients not loading")
	}
	if !c.IsLoading("messages") {
		t.Error("expected messages still loading")
	}

	sections := c.LoadingSections()
	if len(sections) != 1 || sections[0] != "messages" {
		t.Errorf("expected [messages], got %v", sections)
	}
}

func TestShowError_Overwrites(t *testing.T) {
	c := New()

	c.ShowError(errors.New("first"), "a")
	c.ShowError(errors.New("second"), "b")

	rec := c.CurrentError()
	if rec == nil || rec.Message != "second" || rec.Context != "b" {
		t.Errorf("expected second error current, got %+v", rec)
	}

	c.ClearError()
	if c.CurrentError() != nil {
		t.Error("expected error cleared")
	}
}

type countingRecorder struct {
	ops     int
	retries int
}

func (r *countingRecorder) RecordOperation(ctx context.Context, section, outcome string, d time.Duration) {
	r.ops++
}

func (r *countingRecorder) RecordRetry(ctx context.Context, section string) {
	r.retries++
}

func TestRun_Recorder(t *testing.T) {
	rec := &countingRecorder{}
	c := New(WithRetryConfig(fastRetry()), WithRecorder(rec))

	_, _ = Run(context.Background(), c, "clients", func() (string, error) {
		return "", errors.New("fail")
	}, DefaultOptions())

	if rec.ops != 1 {
		t.Errorf("expected 1 operation recorded, got %d", rec.ops)
	}
	if rec.retries != 2 {
		t.Errorf("expected 2 retries recorded, got %d", rec.retries)
	}
}
