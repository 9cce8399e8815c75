// Package tag assembles the asset tag from its components.
//
// A Tag owns the storage volume, the value store, the attribute server, the
// timer registry, the work queue with its base and wake slots, the lifecycle
// controller and the power controller. Run performs the boot sequence:
//
//  1. wait the startup delay
//  2. mount storage and increment the boot counter
//  3. load persisted attribute values
//  4. start the work queue and the status report
//  5. run the lifecycle until it finishes, fails or ctx ends
//
// The base slot carries the periodic status report; the wake slot carries
// wake cycles. Both share one worker goroutine.
package tag
