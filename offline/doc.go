// Package offline buffers actions attempted without connectivity and
// replays them in enqueue order once the connection returns.
//
// The queue is a long-lived service object owned by the coordinator:
//
//	q := offline.NewQueue(offline.Config{}, offline.WithReplayer(replay))
//	defer q.TrackConnection(ctx, tracker)()
//
//	if !q.Online() {
//	    q.Add("saveMedication", payload)
//	}
//
// Replay is FIFO and single-flight. A failed replay keeps the action in
// the queue and surfaces a sync error; an action that keeps failing is
// moved to a dead-letter list after MaxReplayAttempts so one poisoned
// action cannot wedge the queue.
package offline
