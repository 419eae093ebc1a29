// Package engine compiles a job request against a pipeline into a fully
// resolved execution plan, then runs the plan to completion: topological
// dispatch over the execution graph, bounded worker concurrency, output
// verification, and partial-failure containment.
package engine
