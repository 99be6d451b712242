// Package coordinator runs the background loop that triggers full sync passes.
//
// The loop wakes on a short tick (sync.tick, default 1s) and starts a pass once
// sync.interval (default 1h) has elapsed since the previous one. The first pass
// waits a full interval unless sync.runOnStart is set. Passes run synchronously
// inside the loop, so at most one full pass is ever active.
//
// Cancellation, through Stop or the parent context, is only observed between
// ticks. A pass in flight runs with a context detached from the loop's
// cancellation and always completes before Start returns. Pass failures and
// panics are logged and never end the loop.
package coordinator
