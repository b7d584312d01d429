// Package status exposes the sync layer's runtime state over HTTP using Gin.
//
// The handler aggregates whatever components it is given and mounts a small
// diagnostics surface under /sync:
//
//   - GET    /sync/status: connection, queue, conflict, and error state
//   - POST   /sync/reconnect: force a reconnection attempt
//   - POST   /sync/refresh: re-fetch tracked data without a state change
//   - GET    /sync/conflicts: list open data conflicts
//   - POST   /sync/conflicts/:id/resolve: resolve one conflict
//   - GET    /sync/queue: pending and dead-lettered offline actions
//   - DELETE /sync/queue/:id: discard one pending action
//
// Every dependency is optional so the handler can be mounted in partial
// deployments; endpoints backed by a missing component return 404.
package status
