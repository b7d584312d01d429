package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/synckit/clock"
	"github.com/carebridge/synckit/logger"
	"github.com/carebridge/synckit/offline"
	"github.com/carebridge/synckit/retry"
)

// ErrorRecord is the single surfaced error. At most one is active; the
// next ShowError overwrites it and ClearError removes it.
type ErrorRecord struct {
	Err     error     `json:"-"`
	Message string    `json:"message"`
	Context string    `json:"context,omitempty"`
	At      time.Time `json:"at"`
}

// Recorder receives per-operation telemetry. Implemented by
// telemetry.Metrics; nil disables recording.
type Recorder interface {
	RecordOperation(ctx context.Context, section, outcome string, d time.Duration)
	RecordRetry(ctx context.Context, section string)
}

// Coordinator is the single integration point the rest of the application
// uses: it wraps the retry executor, the offline queue, a per-section
// loading map, and the current error record.
type Coordinator struct {
	retryCfg retry.Config
	queue    *offline.Queue
	clk      clock.Clock
	log      *logger.Logger
	recorder Recorder

	mu      sync.Mutex
	loading map[string]bool
	current *ErrorRecord
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRetryConfig sets the retry policy used by Run.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Coordinator) { c.retryCfg = cfg }
}

// WithQueue sets the offline queue failed operations are parked in.
func WithQueue(q *offline.Queue) Option {
	return func(c *Coordinator) { c.queue = q }
}

// WithClock sets the clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) { c.clk = clk }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// New creates a coordinator with the default retry policy and no queue.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		retryCfg: retry.DefaultConfig(),
		loading:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clk == nil {
		c.clk = clock.New()
	}
	if c.log == nil {
		c.log = logger.WithComponent("coordinator")
	}
	return c
}

// Queue returns the offline queue, or nil if none is attached.
func (c *Coordinator) Queue() *offline.Queue { return c.queue }

// ShowError surfaces err as the current error, replacing any previous one.
func (c *Coordinator) ShowError(err error, context string) {
	rec := &ErrorRecord{
		Err:     err,
		Message: err.Error(),
		Context: context,
		At:      c.clk.Now(),
	}
	c.mu.Lock()
	c.current = rec
	c.mu.Unlock()

	c.log.Error("operation failed", logger.Fields(
		logger.FieldSection, context,
		logger.FieldError, err.Error(),
	))
}

// ClearError removes the current error.
func (c *Coordinator) ClearError() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// CurrentError returns a copy of the surfaced error, or nil.
func (c *Coordinator) CurrentError() *ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	rec := *c.current
	return &rec
}

// SetLoading sets the loading flag for a section. Sections appear on first
// use; they are never pre-declared.
func (c *Coordinator) SetLoading(section string, loading bool) {
	c.mu.Lock()
	c.loading[section] = loading
	c.mu.Unlock()
}

// IsLoading reports the loading flag for a section.
func (c *Coordinator) IsLoading(section string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[section]
}

// LoadingSections returns a snapshot of sections currently loading.
func (c *Coordinator) LoadingSections() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.loading))
	for section, loading := range c.loading {
		if loading {
			out = append(out, section)
		}
	}
	return out
}
