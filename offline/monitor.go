package offline

import (
	"context"

	"github.com/carebridge/synckit/connection"
)

// TrackConnection drives the queue's online flag from a connection tracker:
// connected means online, disconnected or error means offline. The
// connecting state leaves the flag as-is, since the outcome is unknown.
// The returned function removes the subscription.
func (q *Queue) TrackConnection(ctx context.Context, tr *connection.Tracker) func() {
	return tr.Subscribe(func(s connection.Status) {
		switch s {
		case connection.StatusConnected:
			q.SetOnline(ctx, true)
		case connection.StatusDisconnected, connection.StatusError:
			q.SetOnline(ctx, false)
		}
	})
}
