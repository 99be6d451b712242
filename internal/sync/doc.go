// Package sync implements the incremental catalog synchronization engine.
//
// # Components
//
//   - Updater: applies one series update. It refreshes the series snapshot when
//     the series changed (or the change set is unknown, or the update is forced),
//     refreshes changed episodes, or every episode when forced, and runs
//     supplemental discovery of episodes newer than the newest stored one.
//   - Manager: runs passes. A full pass reads the watermark, asks the provider
//     for the changed-since delta, applies the staleness policy when the delta is
//     unknown, updates every changed series and finally advances the watermark.
//     A single-series pass does the same for one series and never touches the
//     watermark.
//
// The sync/coordinator subpackage owns the ticker loop that triggers full passes,
// and sync/state persists the watermark.
//
// # Failure handling
//
//   - An unknown delta is not an error. The pass is skipped unless the last
//     sync is older than the staleness threshold, in which case every series
//     is refreshed.
//   - A malformed delta response aborts the pass (ReasonParseError).
//   - A failed provider fetch fails that series only; the pass continues.
//   - A storage failure aborts the pass (ReasonStorageFailed).
//
// The watermark is written once, at the end of a pass that was not aborted, and
// never moves backwards.
package sync
