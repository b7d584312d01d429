package conflict

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/synckit/clock"
	"github.com/carebridge/synckit/errors"
	"github.com/carebridge/synckit/logger"
)

// Writer writes a resolved record back to the data layer.
type Writer interface {
	Write(ctx context.Context, entity string, record Record) error
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, entity string, record Record) error

func (f WriterFunc) Write(ctx context.Context, entity string, record Record) error {
	return f(ctx, entity, record)
}

// Config configures conflict bookkeeping.
type Config struct {
	// VolatileFields are excluded from conflict detection.
	// Defaults to updatedAt, syncedAt and _version.
	VolatileFields []string `yaml:"volatile_fields" mapstructure:"volatile_fields"`
	// HistoryMaxAge is how long resolved-conflict history is kept.
	HistoryMaxAge time.Duration `yaml:"history_max_age" mapstructure:"history_max_age"`
	// PruneInterval is how often history is pruned.
	PruneInterval time.Duration `yaml:"prune_interval" mapstructure:"prune_interval"`
}

// ApplyDefaults applies default values to conflict configuration.
func (c *Config) ApplyDefaults() {
	if c.VolatileFields == nil {
		c.VolatileFields = defaultVolatileFields
	}
	if c.HistoryMaxAge <= 0 {
		c.HistoryMaxAge = 5 * time.Minute
	}
	if c.PruneInterval <= 0 {
		c.PruneInterval = time.Minute
	}
}

// Resolution records the outcome of one resolved conflict.
type Resolution struct {
	ConflictID string    `json:"conflict_id"`
	Entity     string    `json:"entity"`
	Strategy   Strategy  `json:"strategy"`
	Resolved   Record    `json:"resolved"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Resolver owns the active conflict set. Conflicts arrive from the sync
// transport through Add and leave through Resolve; nothing else mutates
// the set.
type Resolver struct {
	cfg    Config
	writer Writer
	clk    clock.Clock
	log    *logger.Logger

	onOpenChange func(int)
	onResolved   func(Strategy)

	mu        sync.Mutex
	conflicts []DataConflict
	history   []Resolution
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWriter sets the write-back target for resolved records.
func WithWriter(w Writer) Option {
	return func(r *Resolver) { r.writer = w }
}

// WithClock sets the clock.
func WithClock(clk clock.Clock) Option {
	return func(r *Resolver) { r.clk = clk }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// WithOpenObserver registers a callback invoked with the open conflict
// count whenever it changes.
func WithOpenObserver(fn func(int)) Option {
	return func(r *Resolver) { r.onOpenChange = fn }
}

// WithResolvedObserver registers a callback invoked per resolution.
func WithResolvedObserver(fn func(Strategy)) Option {
	return func(r *Resolver) { r.onResolved = fn }
}

// NewResolver creates a resolver with no open conflicts.
func NewResolver(cfg Config, opts ...Option) *Resolver {
	cfg.ApplyDefaults()
	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.clk == nil {
		r.clk = clock.New()
	}
	if r.log == nil {
		r.log = logger.WithComponent("conflict")
	}
	return r
}

// Add registers a conflict detected by the sync transport. The differing
// fields are computed here; both versions are deep-copied so entries for
// the same entity stay independent. Returns an error if no fields differ,
// since a conflict with an empty field set must not exist.
func (r *Resolver) Add(entity string, local, remote Record) (DataConflict, error) {
	if entity == "" {
		return DataConflict{}, errors.MissingField("entity")
	}
	fields := DiffFields(local, remote, r.cfg.VolatileFields...)
	if len(fields) == 0 {
		return DataConflict{}, errors.Validation("conflict has no differing fields")
	}

	c := DataConflict{
		ID:         uuid.NewString(),
		Entity:     entity,
		Local:      copyRecord(local),
		Remote:     copyRecord(remote),
		Fields:     fields,
		DetectedAt: r.clk.Now(),
	}

	r.mu.Lock()
	r.conflicts = append(r.conflicts, c)
	open := len(r.conflicts)
	r.mu.Unlock()

	r.log.Info("conflict detected", logger.Fields(
		logger.FieldEntity, entity,
		"fields", fields,
		"open", open,
	))
	r.notifyOpen(open)
	return c, nil
}

// Conflicts returns a snapshot of the open conflicts in detection order.
func (r *Resolver) Conflicts() []DataConflict {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DataConflict, len(r.conflicts))
	copy(out, r.conflicts)
	return out
}

// Get returns the open conflict with the given id.
func (r *Resolver) Get(id string) (DataConflict, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conflicts {
		if c.ID == id {
			return c, true
		}
	}
	return DataConflict{}, false
}

// Resolve applies a strategy to one conflict, writes the result back, and
// removes the conflict from the active set. If the write-back fails the
// conflict stays open and the error is returned.
func (r *Resolver) Resolve(ctx context.Context, id string, strategy Strategy) (Record, error) {
	if !strategy.Valid() {
		return nil, errors.Validation(fmt.Sprintf("unknown strategy: %s", strategy))
	}

	c, ok := r.Get(id)
	if !ok {
		return nil, errors.NotFound("conflict", id)
	}

	var resolved Record
	switch strategy {
	case StrategyLocal:
		resolved = copyRecord(c.Local)
	case StrategyRemote:
		resolved = copyRecord(c.Remote)
	case StrategyMerge:
		resolved = Merge(c.Local, c.Remote)
	}

	if r.writer != nil {
		if err := r.writer.Write(ctx, c.Entity, resolved); err != nil {
			r.log.Warn("resolution write-back failed, conflict kept open", logger.Fields(
				logger.FieldEntity, c.Entity,
				logger.FieldStrategy, string(strategy),
				logger.FieldError, err.Error(),
			))
			return nil, err
		}
	}

	r.mu.Lock()
	for i := range r.conflicts {
		if r.conflicts[i].ID == id {
			r.conflicts = append(r.conflicts[:i], r.conflicts[i+1:]...)
			break
		}
	}
	open := len(r.conflicts)
	r.history = append(r.history, Resolution{
		ConflictID: id,
		Entity:     c.Entity,
		Strategy:   strategy,
		Resolved:   resolved,
		ResolvedAt: r.clk.Now(),
	})
	r.mu.Unlock()

	r.log.Info("conflict resolved", logger.Fields(
		logger.FieldEntity, c.Entity,
		logger.FieldStrategy, string(strategy),
		"open", open,
	))
	r.notifyOpen(open)
	if r.onResolved != nil {
		r.onResolved(strategy)
	}
	return resolved, nil
}

// ResolveAll resolves every open conflict with one strategy, each conflict
// independently. It is not atomic: a write-back failure leaves that
// conflict open and the rest still resolve. Returns the number resolved
// and the joined errors of any failures.
func (r *Resolver) ResolveAll(ctx context.Context, strategy Strategy) (int, error) {
	if !strategy.Valid() {
		return 0, errors.Validation(fmt.Sprintf("unknown strategy: %s", strategy))
	}

	resolved := 0
	var errs []error
	for _, c := range r.Conflicts() {
		if _, err := r.Resolve(ctx, c.ID, strategy); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.ID, err))
			continue
		}
		resolved++
	}
	return resolved, stderrors.Join(errs...)
}

// History returns a snapshot of recent resolutions.
func (r *Resolver) History() []Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Resolution, len(r.history))
	copy(out, r.history)
	return out
}

// StartPruning drops resolution history older than HistoryMaxAge on a
// fixed interval until ctx is cancelled.
func (r *Resolver) StartPruning(ctx context.Context) {
	go func() {
		ticker := r.clk.NewTicker(r.cfg.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				r.pruneHistory()
			}
		}
	}()
}

func (r *Resolver) pruneHistory() {
	cutoff := r.clk.Now().Add(-r.cfg.HistoryMaxAge)

	r.mu.Lock()
	kept := r.history[:0]
	for _, res := range r.history {
		if res.ResolvedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, res)
	}
	r.history = kept
	r.mu.Unlock()
}

func (r *Resolver) notifyOpen(open int) {
	if r.onOpenChange != nil {
		r.onOpenChange(open)
	}
}
