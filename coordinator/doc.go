// Package coordinator is the façade the rest of the application talks to.
// It composes the retry executor, the offline queue, per-section loading
// flags, and the single surfaced error record.
//
//	c := coordinator.New(
//	    coordinator.WithQueue(queue),
//	)
//
//	client, err := coordinator.Run(ctx, c, "clients", loadClient, coordinator.DefaultOptions())
//
// Loading flags are keyed by an opaque caller-chosen section string and
// are independent across sections. Two concurrent Run calls for the same
// section overwrite each other's flag; overlapping loads on one section
// are not reference-counted.
package coordinator
