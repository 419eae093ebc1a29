package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/invoke"
	"github.com/vk/flowgridgo/internal/job"
)

// Config tunes one executor.
type Config struct {
	// Workers bounds how many modules run simultaneously. Zero means one
	// worker per available processor.
	Workers int
	// NodeTimeout, when positive, aborts any single module invocation
	// that runs longer. The node fails and its descendants are skipped.
	NodeTimeout time.Duration
}

// Executor runs one execution plan. It owns the graph's node state for
// the duration of the run; an Executor must not be reused.
type Executor struct {
	plan    *Plan
	invoker invoke.Invoker
	cfg     Config
	wg      sync.WaitGroup
}

// NewExecutor creates an executor for the given plan.
func NewExecutor(plan *Plan, invoker invoke.Invoker, cfg Config) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Executor{plan: plan, invoker: invoker, cfg: cfg}
}

// Run executes the plan and returns the per-node result. Node failures
// are contained: the failing node's transitive descendants are skipped
// while sibling branches run to completion. Cancelling ctx stops new
// dispatch, signals running modules, and yields cancelled statuses.
func (e *Executor) Run(ctx context.Context) *job.Result {
	logger := ctxlog.FromContext(ctx)
	g := e.plan.Graph

	// Ready nodes queue in FIFO order of readiness; the channel is large
	// enough to hold every node, so completion never blocks on dispatch.
	readyChan := make(chan *graph.Node, len(g.Nodes))

	rootCount := 0
	for _, n := range g.Nodes {
		n.InitCounters()
		if len(n.Preds) == 0 {
			readyChan <- n
			rootCount++
		}
	}
	logger.Debug("Executor initialized.", "nodes", len(g.Nodes), "roots", rootCount, "workers", e.cfg.Workers)

	e.wg.Add(len(g.Nodes))
	for i := 0; i < e.cfg.Workers; i++ {
		go e.worker(ctx, readyChan, i)
	}

	e.wg.Wait()
	close(readyChan)
	logger.Debug("All nodes reached a terminal state.")

	return e.collectResult(ctx)
}

// worker is the processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *graph.Node, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for n := range readyChan {
		if ctx.Err() != nil {
			e.cancelNode(ctx, n)
			continue
		}

		nodeLogger := logger.With("workerID", workerID, "node", n.Name)
		n.SetState(graph.Running)

		err := e.runNode(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				// The module was interrupted by job cancellation, not a
				// fault of its own.
				n.SetState(graph.Cancelled)
				n.Err = ctx.Err()
				e.cancelDescendants(ctx, n)
				e.wg.Done()
				continue
			}
			nodeLogger.Error("Node execution failed.", "error", err)
			n.SetState(graph.Failed)
			n.Err = err
			e.skipDescendants(ctx, n)
			e.wg.Done()
			continue
		}

		n.SetState(graph.Done)
		if !n.Synthetic() {
			nodeLogger.Info("✅ Node completed.")
		}
		for _, succ := range n.Succs {
			if succ.PredDone() == 0 {
				nodeLogger.Debug("Unlocking dependent node.", "dependent", succ.Name)
				readyChan <- succ
			}
		}
		e.wg.Done()
	}
}

// runNode performs one node's work. The synthetic boundary nodes carry no
// work of their own: INPUT completes immediately, OUTPUT completes once
// every producer feeding it is done, which is exactly when it is
// dispatched.
func (e *Executor) runNode(ctx context.Context, n *graph.Node) error {
	if n.Synthetic() {
		return nil
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Running module.", "node", n.Name, "module", n.Module.ID)

	invCtx := ctx
	if e.cfg.NodeTimeout > 0 {
		var cancel context.CancelFunc
		invCtx, cancel = context.WithTimeout(ctx, e.cfg.NodeTimeout)
		defer cancel()
	}

	inv := invoke.Invocation{
		Module:     n.Module.ID,
		Executable: n.Module.Executable,
		Instance:   n.Name,
		WorkDir:    e.plan.WorkingDir,
		Parameters: e.plan.Params[n.Name],
		Inputs:     e.plan.Inputs[n.Name],
		Outputs:    e.plan.Outputs[n.Name],
	}
	if err := e.invoker.Invoke(invCtx, inv); err != nil {
		return err
	}
	return e.verifyOutputs(n)
}

// skipDescendants marks every transitive descendant of a failed node as
// skipped, without running it. Sibling branches are untouched.
func (e *Executor) skipDescendants(ctx context.Context, n *graph.Node) {
	logger := ctxlog.FromContext(ctx)
	for _, succ := range n.Succs {
		succ.Once(func() {
			if !succ.Synthetic() {
				logger.Warn("Skipping node due to upstream failure.", "node", succ.Name, "failed", n.Name)
			}
			succ.SetState(graph.Skipped)
			succ.Err = fmt.Errorf("skipped due to upstream failure of %q", n.Name)
			e.wg.Done()
			e.skipDescendants(ctx, succ)
		})
	}
}

// cancelNode marks a dispatched node as cancelled, along with every
// descendant that can no longer run.
func (e *Executor) cancelNode(ctx context.Context, n *graph.Node) {
	n.Once(func() {
		n.SetState(graph.Cancelled)
		n.Err = ctx.Err()
		e.wg.Done()
		e.cancelDescendants(ctx, n)
	})
}

func (e *Executor) cancelDescendants(ctx context.Context, n *graph.Node) {
	for _, succ := range n.Succs {
		succ.Once(func() {
			succ.SetState(graph.Cancelled)
			succ.Err = ctx.Err()
			e.wg.Done()
			e.cancelDescendants(ctx, succ)
		})
	}
}

// collectResult assembles the per-node status map and the set of
// populated pipeline outputs.
func (e *Executor) collectResult(ctx context.Context) *job.Result {
	g := e.plan.Graph
	result := &job.Result{
		JobID:     uuid.NewString(),
		Pipeline:  e.plan.Pipeline.ID,
		Statuses:  make(map[string]job.Status),
		Outputs:   make(map[string]string),
		Cancelled: ctx.Err() != nil,
	}

	for _, n := range g.InstanceNodes() {
		result.Statuses[n.Name] = nodeStatus(n)
	}

	// Report root causes in manifest order so callers see a stable pick.
	for i := range e.plan.Pipeline.Instances {
		name := e.plan.Pipeline.Instances[i].Name
		if result.Statuses[name] == job.StatusFailed {
			result.FailedNode = name
			result.Err = g.Nodes[name].Err
			break
		}
	}
	if result.Err == nil && result.Cancelled {
		result.Err = ctx.Err()
	}

	for _, edge := range g.Edges {
		if edge.To == g.Output && edge.From.State() == graph.Done {
			result.Outputs[edge.ToPort] = edge.Path
		}
	}
	return result
}

func nodeStatus(n *graph.Node) job.Status {
	switch n.State() {
	case graph.Done:
		return job.StatusDone
	case graph.Failed:
		return job.StatusFailed
	case graph.Skipped:
		return job.StatusSkipped
	case graph.Cancelled:
		return job.StatusCancelled
	}
	// A node left pending can only mean the run stopped early.
	return job.StatusCancelled
}
