package status

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/synckit/conflict"
	"github.com/carebridge/synckit/connection"
	"github.com/carebridge/synckit/coordinator"
	"github.com/carebridge/synckit/errors"
	"github.com/carebridge/synckit/offline"
	"github.com/carebridge/synckit/validation"
	"github.com/carebridge/synckit/version"
)

// Handler exposes the sync layer's state over HTTP for diagnostics and
// manual intervention. Every dependency is optional; endpoints backed by
// a missing one return 404.
type Handler struct {
	tracker     *connection.Tracker
	queue       *offline.Queue
	resolver    *conflict.Resolver
	coordinator *coordinator.Coordinator
}

// Option configures a Handler.
type Option func(*Handler)

// WithTracker attaches the connection tracker.
func WithTracker(t *connection.Tracker) Option {
	return func(h *Handler) { h.tracker = t }
}

// WithQueue attaches the offline queue.
func WithQueue(q *offline.Queue) Option {
	return func(h *Handler) { h.queue = q }
}

// WithResolver attaches the conflict resolver.
func WithResolver(r *conflict.Resolver) Option {
	return func(h *Handler) { h.resolver = r }
}

// WithCoordinator attaches the coordinator.
func WithCoordinator(c *coordinator.Coordinator) Option {
	return func(h *Handler) { h.coordinator = c }
}

// NewHandler creates a diagnostics handler over the given components.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the sync endpoints on the given router group.
func (h *Handler) Register(r gin.IRouter) {
	sync := r.Group("/sync")
	sync.GET("/status", h.Status)
	sync.POST("/reconnect", h.Reconnect)
	sync.POST("/refresh", h.Refresh)
	sync.GET("/conflicts", h.Conflicts)
	sync.POST("/conflicts/:id/resolve", h.ResolveConflict)
	sync.GET("/queue", h.QueueState)
	sync.DELETE("/queue/:id", h.DiscardAction)
}

// StatusReport is the aggregate state returned by GET /sync/status.
type StatusReport struct {
	Connection      string                   `json:"connection,omitempty"`
	LastChanged     *time.Time               `json:"lastChanged,omitempty"`
	Online          *bool                    `json:"online,omitempty"`
	SyncStatus      offline.SyncStatus       `json:"syncStatus,omitempty"`
	QueueDepth      *int                     `json:"queueDepth,omitempty"`
	FailedActions   *int                     `json:"failedActions,omitempty"`
	OpenConflicts   *int                     `json:"openConflicts,omitempty"`
	LoadingSections []string                 `json:"loadingSections,omitempty"`
	Error           *coordinator.ErrorRecord `json:"error,omitempty"`
	Version         string                   `json:"version"`
	Timestamp       time.Time                `json:"timestamp"`
}

// Status reports the aggregate state of every attached component.
func (h *Handler) Status(c *gin.Context) {
	report := StatusReport{
		Version:   version.Short(),
		Timestamp: time.Now().UTC(),
	}

	if h.tracker != nil {
		report.Connection = string(h.tracker.Status())
		changed := h.tracker.LastChanged()
		if !changed.IsZero() {
			report.LastChanged = &changed
		}
	}
	if h.queue != nil {
		online := h.queue.Online()
		depth := len(h.queue.Pending())
		failed := len(h.queue.Failed())
		report.Online = &online
		report.SyncStatus = h.queue.Status()
		report.QueueDepth = &depth
		report.FailedActions = &failed
	}
	if h.resolver != nil {
		open := len(h.resolver.Conflicts())
		report.OpenConflicts = &open
	}
	if h.coordinator != nil {
		report.LoadingSections = h.coordinator.LoadingSections()
		report.Error = h.coordinator.CurrentError()
	}

	RespondOK(c, report)
}

// Reconnect forces a reconnection attempt on the tracker.
func (h *Handler) Reconnect(c *gin.Context) {
	if h.tracker == nil {
		RespondWithError(c, errors.NotFound("component", "tracker"))
		return
	}
	if err := h.tracker.ForceReconnect(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": string(h.tracker.Status())})
}

// Refresh re-fetches all tracked data without changing connection state.
func (h *Handler) Refresh(c *gin.Context) {
	if h.tracker == nil {
		RespondWithError(c, errors.NotFound("component", "tracker"))
		return
	}
	if err := h.tracker.RefreshAllData(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"refreshed": true})
}

// Conflicts lists the open data conflicts.
func (h *Handler) Conflicts(c *gin.Context) {
	if h.resolver == nil {
		RespondWithError(c, errors.NotFound("component", "resolver"))
		return
	}
	RespondOK(c, h.resolver.Conflicts())
}

// resolveRequest is the body for POST /sync/conflicts/:id/resolve.
type resolveRequest struct {
	Strategy string `json:"strategy" validate:"required,oneof=local remote merge"`
}

// ResolveConflict resolves one conflict with the requested strategy.
func (h *Handler) ResolveConflict(c *gin.Context) {
	if h.resolver == nil {
		RespondWithError(c, errors.NotFound("component", "resolver"))
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.Validation("body must include a strategy").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}
	strategy := conflict.Strategy(req.Strategy)

	record, err := h.resolver.Resolve(c.Request.Context(), c.Param("id"), strategy)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{"resolved": record})
}

// QueueState lists pending and dead-lettered actions.
func (h *Handler) QueueState(c *gin.Context) {
	if h.queue == nil {
		RespondWithError(c, errors.NotFound("component", "queue"))
		return
	}
	RespondOK(c, gin.H{
		"pending": h.queue.Pending(),
		"failed":  h.queue.Failed(),
	})
}

// DiscardAction removes one pending action without replaying it.
func (h *Handler) DiscardAction(c *gin.Context) {
	if h.queue == nil {
		RespondWithError(c, errors.NotFound("component", "queue"))
		return
	}
	id := c.Param("id")
	if !h.queue.Discard(id) {
		RespondWithError(c, errors.NotFound("pending action", id))
		return
	}
	c.Status(http.StatusNoContent)
}
