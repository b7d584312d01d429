// Package retry provides the exponential-backoff retry executor at the
// bottom of the synckit dependency graph.
//
// Do runs an operation with a deterministic backoff curve:
//
//	result, err := retry.Do(ctx, retry.DefaultConfig(), func() (Client, error) {
//	    return api.LoadClient(id)
//	})
//
// By default only errors the errors package classifies as retryable
// (network, timeout, 5xx-class) are retried; auth and validation failures
// propagate immediately.
//
// Retrier is the stateful variant for UIs that render attempt counts and
// a retry affordance:
//
//	r := retry.NewRetrier(retry.DefaultConfig())
//	err := r.Run(ctx, save)
//	state := r.State() // Attempt, Retrying, LastErr, CanRetry
package retry
