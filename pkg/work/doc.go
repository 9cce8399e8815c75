// Package work moves closures from the timer expiry context onto a worker
// goroutine that may block.
//
// A Worker owns one goroutine that runs deferred closures sequentially, one
// at a time. Slots are created on a Worker; each Slot holds at most one
// installed closure and a single-item mailbox.
//
// # Installation Lifetime
//
// Install places a closure into a Slot and returns an Installation. The
// scope that installed the closure owns the Installation and must Release it
// when the scope ends. After Release, the Slot falls back to a harmless
// default action, so a late firing can never reach resources the released
// closure captured.
//
// # Delivery
//
// Submit never blocks. It captures the installation current at the time of
// the call into the Slot's mailbox, overwriting any earlier capture that has
// not run yet, and signals the Worker. Delivery is at-most-one-pending, not a
// queue: several Submits before the Worker gets to the Slot produce a single
// run of the latest captured closure. When the Worker gets to the Slot it runs
// the captured closure if its Installation is still alive and the fallback
// otherwise.
package work
