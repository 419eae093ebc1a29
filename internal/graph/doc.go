// Package graph builds the validated execution graph for one job: one
// node per module instance plus synthetic INPUT and OUTPUT nodes, one
// edge per connection. Building is pure construction and validation —
// nothing executes here — and is safely re-runnable. The resulting graph
// is owned exclusively by one job execution; only the engine mutates node
// state during a run.
package graph
