// Package observability provides ready-made lifecycle hook adapters:
// structured logging of run progress and Prometheus metrics. Both attach to
// the engine through domain.LifecycleHooks and can be combined with Merge.
package observability

import (
	"context"
	"log/slog"

	"github.com/pbarbosa/espalier/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that report run and node progress
// through the given structured logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			logger.Info("run started", "run", e.RunID, "profile", e.Profile, "nodes", e.Nodes)
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			if e.Result == nil {
				return
			}
			logger.Info("run finished",
				"run", e.RunID,
				"success", e.Result.Success,
				"succeeded", e.Result.Succeeded,
				"failed", e.Result.Failed,
				"skipped", e.Result.Skipped,
				"duration", e.Result.Duration,
				"max_concurrency", e.Result.MaxConcurrency)
		},
		OnNodeStart: func(_ context.Context, e *domain.NodeEvent) {
			logger.Debug("node started", "run", e.RunID, "node", e.NodeID)
		},
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			if e.Outcome == nil {
				return
			}
			switch e.Outcome.Status {
			case domain.StatusFailed:
				logger.Error("node failed",
					"run", e.RunID, "node", e.NodeID,
					"attempts", e.Outcome.Attempts, "err", e.Outcome.Err)
			default:
				logger.Info("node finished",
					"run", e.RunID, "node", e.NodeID, "status", string(e.Outcome.Status),
					"attempts", e.Outcome.Attempts, "duration", e.Outcome.Duration)
			}
		},
		OnNodeSkip: func(_ context.Context, e *domain.NodeEvent) {
			var reason error
			if e.Outcome != nil {
				reason = e.Outcome.Err
			}
			logger.Warn("node skipped", "run", e.RunID, "node", e.NodeID, "reason", reason)
		},
	}
}
