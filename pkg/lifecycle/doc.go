// Package lifecycle runs the asset tag's duty cycle.
//
// A Controller starts in RUNNING. Every period a wake cycle flushes touched
// attribute values to storage, samples the supply voltage, advertises for
// the advertise window (period × duty cycle / 100) and stops advertising.
// Cycles are delivered through a work.Slot so they never run on the timer's
// expiry context and never overlap.
//
// The lifecycle is fail-fast. A failed battery conversion or a failed
// advertising start moves the controller to ERROR, publishes the error
// through the error attribute and invokes the fatal handler exactly once.
// Storage flush failures are logged and the cycle continues.
//
// Finish moves the controller to DONE; Run then powers the tag off.
package lifecycle
