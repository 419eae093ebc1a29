package job

// Status is the terminal state of one pipeline node after a run.
type Status string

const (
	// StatusDone marks a node whose module completed and whose outputs
	// were verified.
	StatusDone Status = "done"
	// StatusFailed marks a node whose module invocation failed or timed
	// out.
	StatusFailed Status = "failed"
	// StatusSkipped marks a node never attempted because an upstream
	// node failed.
	StatusSkipped Status = "skipped"
	// StatusCancelled marks a node stopped or never attempted because
	// the job itself was cancelled.
	StatusCancelled Status = "cancelled"
)

// Result is the outcome of one job run. It always enumerates the terminal
// status of every module instance, even on failure, so a caller can tell
// "never attempted" apart from "attempted and failed".
type Result struct {
	JobID    string
	Pipeline string
	// Statuses maps each module instance name to its terminal status.
	// Synthetic INPUT/OUTPUT nodes are not included.
	Statuses map[string]Status
	// Outputs maps declared pipeline output names to the concrete paths
	// that were populated. Outputs downstream of a failure are absent.
	Outputs map[string]string
	// FailedNode names the node the root-cause error originated from.
	FailedNode string
	// Err is the root-cause error, nil when the job succeeded.
	Err error
	// Cancelled reports that the job stopped due to caller cancellation
	// rather than a node failure.
	Cancelled bool
}

// Succeeded reports whether every node reached done.
func (r *Result) Succeeded() bool {
	if r.Err != nil || r.Cancelled {
		return false
	}
	for _, s := range r.Statuses {
		if s != StatusDone {
			return false
		}
	}
	return true
}
