package connection

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/synckit/clock"
	"github.com/carebridge/synckit/logger"
)

// Status represents the live-transport connection state.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// allowedTransitions is the tracker's state machine. A failed dial moves
// connecting to error.
var allowedTransitions = map[Status][]Status{
	StatusConnecting:   {StatusConnected, StatusError},
	StatusConnected:    {StatusDisconnected, StatusError},
	StatusDisconnected: {StatusConnecting},
	StatusError:        {StatusConnecting},
}

// DialFunc re-establishes the live transport.
type DialFunc func(ctx context.Context) error

// RefreshFunc re-fetches cached application data. It is independent of the
// socket state and never changes it.
type RefreshFunc func(ctx context.Context) error

// Tracker owns the single global connection status. All transitions go
// through its methods; invalid ones are ignored.
type Tracker struct {
	dial    DialFunc
	refresh RefreshFunc
	clk     clock.Clock
	log     *logger.Logger

	mu          sync.Mutex
	status      Status
	lastChanged time.Time
	subscribers []func(Status)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithDialer sets the function ForceReconnect uses to re-dial the transport.
func WithDialer(d DialFunc) Option {
	return func(t *Tracker) { t.dial = d }
}

// WithRefresher sets the function RefreshAllData invokes.
func WithRefresher(r RefreshFunc) Option {
	return func(t *Tracker) { t.refresh = r }
}

// WithClock sets the clock used for transition timestamps.
func WithClock(clk clock.Clock) Option {
	return func(t *Tracker) { t.clk = clk }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// NewTracker creates a tracker in the connecting state.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{status: StatusConnecting}
	for _, opt := range opts {
		opt(t)
	}
	if t.clk == nil {
		t.clk = clock.New()
	}
	if t.log == nil {
		t.log = logger.WithComponent("connection")
	}
	t.lastChanged = t.clk.Now()
	return t
}

// Status returns the current connection status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// LastChanged returns when the status last transitioned.
func (t *Tracker) LastChanged() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastChanged
}

// Subscribe registers a listener invoked on every status transition.
// The returned function removes the listener.
func (t *Tracker) Subscribe(fn func(Status)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
	idx := len(t.subscribers) - 1
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if idx < len(t.subscribers) {
			t.subscribers[idx] = nil
		}
	}
}

// MarkConnected records a successful transport handshake.
func (t *Tracker) MarkConnected() { t.transition(StatusConnected) }

// MarkDisconnected records signal loss on an established connection.
func (t *Tracker) MarkDisconnected() { t.transition(StatusDisconnected) }

// MarkError records a protocol-level failure.
func (t *Tracker) MarkError() { t.transition(StatusError) }

// ForceReconnect moves a disconnected or errored tracker back to connecting
// and re-dials the transport if a dialer is configured. A dial failure lands
// the tracker in the error state and is returned to the caller.
func (t *Tracker) ForceReconnect(ctx context.Context) error {
	if !t.transition(StatusConnecting) {
		return nil
	}
	if t.dial == nil {
		return nil
	}
	if err := t.dial(ctx); err != nil {
		t.transition(StatusError)
		return err
	}
	t.transition(StatusConnected)
	return nil
}

// RefreshAllData re-fetches cached data through the configured refresher.
// The connection status is not touched; this is the recovery action for a
// healthy socket with suspect application state.
func (t *Tracker) RefreshAllData(ctx context.Context) error {
	if t.refresh == nil {
		return nil
	}
	return t.refresh(ctx)
}

// transition applies the state machine and notifies subscribers.
// Returns false if the transition is not allowed from the current state.
func (t *Tracker) transition(to Status) bool {
	t.mu.Lock()
	from := t.status
	if !transitionAllowed(from, to) {
		t.mu.Unlock()
		t.log.Debug("ignoring invalid transition", logger.Fields(
			"from", string(from), "to", string(to),
		))
		return false
	}
	t.status = to
	t.lastChanged = t.clk.Now()
	subs := make([]func(Status), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		if fn != nil {
			subs = append(subs, fn)
		}
	}
	t.mu.Unlock()

	t.log.Info("connection status changed", logger.Fields(
		"from", string(from), "to", string(to),
	))
	for _, fn := range subs {
		fn(to)
	}
	return true
}

func transitionAllowed(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
