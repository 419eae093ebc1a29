// Package job defines the job request a caller submits against a pipeline
// and the per-node result the engine reports back. A Request is
// constructed once per invocation and read-only thereafter.
package job
