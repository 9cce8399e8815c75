// Package timer implements the bounded timer registry of the asset tag.
//
// A Registry owns a fixed-capacity table binding timer identities to dispatch
// callbacks. Timers are registered either as periodic (a frequency and a
// repeat scale) or as one-shot (a single delay). Each registration returns a
// Handle that owns the underlying timer and stops it deterministically.
//
// # Expiry Context
//
// Callbacks run on the expiry context, the goroutine on which the time
// source observes a firing. Callbacks must not block, perform I/O or wait on
// locks held by blocking code. Deferred work belongs on a work.Worker; the
// usual callback is a single work.Slot.Submit call.
//
// # Capacity
//
// The table holds at most Capacity bindings (default: 5). Registering beyond
// capacity fails with ErrResourceExhausted and leaves existing bindings
// untouched. Bindings are never removed: stopping a Handle invalidates its
// binding, but the table entry stays occupied for the life of the Registry.
//
// # Identity
//
// Identities come from a process-wide counter and are never reused, so a
// stale firing can never be dispatched to a newer binding.
package timer
