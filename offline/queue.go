package offline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/synckit/clock"
	"github.com/carebridge/synckit/errors"
	"github.com/carebridge/synckit/logger"
)

// SyncStatus describes where the queue is in its replay lifecycle.
type SyncStatus string

const (
	StatusSynced  SyncStatus = "synced"
	StatusSyncing SyncStatus = "syncing"
	StatusError   SyncStatus = "error"
)

// PendingAction is an operation deferred because the client was offline
// when it was first attempted.
type PendingAction struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Payload    any       `json:"payload,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	// Attempts counts failed replays of this action.
	Attempts int `json:"attempts"`
}

// Replayer replays one queued action against the backend.
type Replayer func(ctx context.Context, action PendingAction) error

// Config configures queue replay and pruning.
type Config struct {
	// MaxReplayAttempts bounds how often one action is retried across
	// replay passes before it is moved to the dead-letter list.
	MaxReplayAttempts int `yaml:"max_replay_attempts" mapstructure:"max_replay_attempts"`
	// PruneInterval is how often stale pending actions are pruned.
	// Zero disables pruning.
	PruneInterval time.Duration `yaml:"prune_interval" mapstructure:"prune_interval"`
	// MaxAge is the age past which a pending action is pruned.
	// Zero disables pruning.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`
}

// ApplyDefaults applies default values to queue configuration.
func (c *Config) ApplyDefaults() {
	if c.MaxReplayAttempts <= 0 {
		c.MaxReplayAttempts = 5
	}
}

// Validate validates queue configuration.
func (c *Config) Validate() error {
	if c.PruneInterval < 0 {
		return fmt.Errorf("offline.prune_interval must not be negative")
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("offline.max_age must not be negative")
	}
	return nil
}

// Queue buffers actions attempted while offline and replays them in FIFO
// order once connectivity returns. It exclusively owns the pending list;
// all mutation goes through its methods.
type Queue struct {
	cfg      Config
	replayer Replayer
	clk      clock.Clock
	log      *logger.Logger
	onDepth  func(int)

	mu         sync.Mutex
	online     bool
	wasOffline bool
	lastOnline time.Time
	status     SyncStatus
	pending    []PendingAction
	failed     []PendingAction
	replaying  bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithReplayer sets the function used to replay queued actions.
func WithReplayer(r Replayer) Option {
	return func(q *Queue) { q.replayer = r }
}

// WithClock sets the clock used for timestamps and prune scheduling.
func WithClock(clk clock.Clock) Option {
	return func(q *Queue) { q.clk = clk }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// WithDepthObserver registers a callback invoked with the pending count
// whenever it changes.
func WithDepthObserver(fn func(int)) Option {
	return func(q *Queue) { q.onDepth = fn }
}

// NewQueue creates a queue that starts online and synced.
func NewQueue(cfg Config, opts ...Option) *Queue {
	cfg.ApplyDefaults()
	q := &Queue{
		cfg:    cfg,
		online: true,
		status: StatusSynced,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.clk == nil {
		q.clk = clock.New()
	}
	if q.log == nil {
		q.log = logger.WithComponent("offline")
	}
	q.lastOnline = q.clk.Now()
	return q
}

// Online reports current connectivity as last signalled.
func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// WasOffline reports whether an offline->online transition occurred since
// the last AckOffline call.
func (q *Queue) WasOffline() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.wasOffline
}

// AckOffline resets the sticky WasOffline flag.
func (q *Queue) AckOffline() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.wasOffline = false
}

// LastOnline returns the time connectivity was last confirmed.
func (q *Queue) LastOnline() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastOnline
}

// Status returns the current sync status.
func (q *Queue) Status() SyncStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// Pending returns a snapshot of the queued actions in enqueue order.
func (q *Queue) Pending() []PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingAction, len(q.pending))
	copy(out, q.pending)
	return out
}

// Failed returns the dead-letter list: actions that exhausted their replay
// attempts. They are kept for inspection and manual discard.
func (q *Queue) Failed() []PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingAction, len(q.failed))
	copy(out, q.failed)
	return out
}

// Add appends an action to the queue. The queue does not deduplicate by
// kind; that is the caller's responsibility before enqueuing.
func (q *Queue) Add(kind string, payload any) (PendingAction, error) {
	if kind == "" {
		return PendingAction{}, errors.MissingField("kind")
	}

	action := PendingAction{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: q.clk.Now(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, action)
	depth := len(q.pending)
	q.mu.Unlock()

	q.log.Debug("action queued", logger.Fields(
		logger.FieldActionID, action.ID,
		logger.FieldKind, kind,
		"depth", depth,
	))
	q.notifyDepth(depth)
	return action, nil
}

// Discard removes a pending or dead-lettered action by id.
func (q *Queue) Discard(id string) bool {
	q.mu.Lock()
	for i, a := range q.pending {
		if a.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			depth := len(q.pending)
			q.mu.Unlock()
			q.notifyDepth(depth)
			return true
		}
	}
	for i, a := range q.failed {
		if a.ID == id {
			q.failed = append(q.failed[:i], q.failed[i+1:]...)
			q.mu.Unlock()
			return true
		}
	}
	q.mu.Unlock()
	return false
}

// SetOnline records a connectivity transition. Moving from offline to
// online marks the sticky WasOffline flag and drains the queue.
func (q *Queue) SetOnline(ctx context.Context, online bool) {
	q.mu.Lock()
	was := q.online
	q.online = online
	if online {
		q.lastOnline = q.clk.Now()
		if !was {
			q.wasOffline = true
		}
	}
	q.mu.Unlock()

	if online && !was {
		q.log.Info("back online, draining queue")
		_ = q.Flush(ctx)
	} else if !online && was {
		q.log.Info("went offline")
	}
}

// Flush replays queued actions in FIFO order. A replay failure leaves the
// action in place with its attempt count bumped and sets the status to
// error; the failed replay's error is returned. An action that exhausts
// MaxReplayAttempts moves to the dead-letter list and the pass continues.
// Only one flush runs at a time; a concurrent call returns nil and the
// running pass picks up any actions appended meanwhile.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.replaying || !q.online || q.replayer == nil {
		q.mu.Unlock()
		return nil
	}
	q.replaying = true
	q.status = StatusSyncing
	q.mu.Unlock()

	err := q.drain(ctx)

	q.mu.Lock()
	q.replaying = false
	if err != nil {
		q.status = StatusError
	} else if len(q.pending) == 0 {
		q.status = StatusSynced
	}
	q.mu.Unlock()
	return err
}

func (q *Queue) drain(ctx context.Context) error {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 || !q.online {
			q.mu.Unlock()
			return nil
		}
		action := q.pending[0]
		q.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return err
		}

		replayErr := q.replayer(ctx, action)

		q.mu.Lock()
		// The head may have been discarded while the replayer ran.
		if len(q.pending) == 0 || q.pending[0].ID != action.ID {
			q.mu.Unlock()
			continue
		}
		if replayErr == nil {
			q.pending = q.pending[1:]
			depth := len(q.pending)
			q.mu.Unlock()
			q.log.Debug("action replayed", logger.Fields(
				logger.FieldActionID, action.ID,
				logger.FieldKind, action.Kind,
			))
			q.notifyDepth(depth)
			continue
		}

		q.pending[0].Attempts++
		attempts := q.pending[0].Attempts
		if attempts >= q.cfg.MaxReplayAttempts {
			dead := q.pending[0]
			q.pending = q.pending[1:]
			q.failed = append(q.failed, dead)
			depth := len(q.pending)
			q.mu.Unlock()
			q.log.Warn("action dead-lettered after repeated replay failures", logger.Fields(
				logger.FieldActionID, dead.ID,
				logger.FieldKind, dead.Kind,
				logger.FieldAttempt, attempts,
				logger.FieldError, replayErr.Error(),
			))
			q.notifyDepth(depth)
			continue
		}
		q.mu.Unlock()

		q.log.Warn("replay failed, action kept in queue", logger.Fields(
			logger.FieldActionID, action.ID,
			logger.FieldKind, action.Kind,
			logger.FieldAttempt, attempts,
			logger.FieldError, replayErr.Error(),
		))
		return errors.ReplayFailed(action.Kind, replayErr)
	}
}

// StartPruning prunes pending actions older than MaxAge on a fixed
// interval until ctx is cancelled. Actions appended between passes are
// untouched. It is a no-op unless both PruneInterval and MaxAge are set.
func (q *Queue) StartPruning(ctx context.Context) {
	if q.cfg.PruneInterval <= 0 || q.cfg.MaxAge <= 0 {
		return
	}
	go func() {
		ticker := q.clk.NewTicker(q.cfg.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				q.prune()
			}
		}
	}()
}

func (q *Queue) prune() {
	cutoff := q.clk.Now().Add(-q.cfg.MaxAge)

	q.mu.Lock()
	kept := q.pending[:0]
	pruned := 0
	for _, a := range q.pending {
		if a.EnqueuedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, a)
	}
	q.pending = kept
	depth := len(q.pending)
	q.mu.Unlock()

	if pruned > 0 {
		q.log.Info("pruned stale pending actions", logger.Fields("count", pruned))
		q.notifyDepth(depth)
	}
}

func (q *Queue) notifyDepth(depth int) {
	if q.onDepth != nil {
		q.onDepth(depth)
	}
}
