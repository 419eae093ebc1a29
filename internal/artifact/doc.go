// Package artifact assigns a deterministic filesystem path to every data
// edge of an execution graph before anything runs, so producers and
// consumers agree on file locations without run-time communication.
package artifact
