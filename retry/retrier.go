package retry

import (
	"context"
	"sync"
)

// State is a UI-consumable snapshot of an in-flight or finished retry run.
type State struct {
	// Attempt is the number of the attempt most recently started.
	// Never exceeds Config.MaxAttempts.
	Attempt int
	// Retrying is true while a run is waiting out a backoff or re-invoking
	// the operation after a failure.
	Retrying bool
	// LastErr is the most recent failure, or nil.
	LastErr error
	// CanRetry reports whether the final error was classified retryable.
	CanRetry bool
}

// Retrier runs operations under one retry policy and exposes reactive
// State for the UI. Reset clears the reported state but does not cancel
// an in-flight backoff timer; a superseded run's updates are discarded
// once a reset or a fresh run has bumped the generation.
type Retrier struct {
	cfg Config

	mu    sync.Mutex
	state State
	gen   uint64
}

// NewRetrier creates a Retrier with the given config.
func NewRetrier(cfg Config) *Retrier {
	cfg.applyDefaults()
	return &Retrier{cfg: cfg}
}

// Run executes op under the retrier's policy, updating State as it goes.
// The error of the final attempt is returned unchanged.
func (r *Retrier) Run(ctx context.Context, op func() error) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.state = State{}
	r.mu.Unlock()

	cfg := r.cfg
	attempt := 0
	err := DoFunc(ctx, cfg, func() error {
		attempt++
		r.update(gen, func(s *State) {
			s.Attempt = attempt
			s.Retrying = attempt > 1
		})
		return op()
	})

	if err == nil {
		r.update(gen, func(s *State) { *s = State{} })
		return nil
	}
	r.update(gen, func(s *State) {
		s.Retrying = false
		s.LastErr = err
		s.CanRetry = cfg.RetryIf(err)
	})
	return err
}

// State returns the current snapshot.
func (r *Retrier) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Reset returns the reported state to defaults. Any run still in flight
// keeps going but can no longer publish state.
func (r *Retrier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.state = State{}
}

func (r *Retrier) update(gen uint64, fn func(*State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	fn(&r.state)
}
