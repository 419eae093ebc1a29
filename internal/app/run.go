package app

import (
	"context"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/engine"
	"github.com/vk/flowgridgo/internal/job"
)

// Run executes the configured job: load the request, compile the plan,
// run it. Compilation errors are returned directly (nothing ran); an
// execution result is always returned otherwise, even on partial failure.
func (a *App) Run(ctx context.Context) (*job.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	request, err := job.LoadRequest(a.config.JobPath)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Job request loaded.", "pipeline", request.Pipeline)

	plan, err := engine.BuildPlan(ctx, a.library, request, a.models)
	if err != nil {
		return nil, err
	}

	a.logger.Info("🚀 Starting pipeline execution.",
		"pipeline", plan.Pipeline.ID, "instances", len(plan.Pipeline.Instances), "workers", a.config.Workers)

	exec := engine.NewExecutor(plan, a.invoker, engine.Config{
		Workers:     a.config.Workers,
		NodeTimeout: a.config.NodeTimeout,
	})
	result := exec.Run(ctx)

	if result.Succeeded() {
		a.logger.Info("🏁 Pipeline finished.", "job", result.JobID, "outputs", len(result.Outputs))
	} else {
		a.logger.Error("Pipeline finished with failures.",
			"job", result.JobID, "failed_node", result.FailedNode, "error", result.Err)
	}
	for name, status := range result.Statuses {
		a.logger.Info("Node status.", "node", name, "status", string(status))
	}

	a.logger.Debug("App.Run method finished.")
	return result, nil
}
