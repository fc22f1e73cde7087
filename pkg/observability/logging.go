package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/switchboard/pkg/domain"
)

// LogHooks writes one structured line per lifecycle callback.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnHandlerCall: func(ctx context.Context, e *domain.HandlerEvent) {
			logger.DebugContext(ctx, "handler_call", "task_id", e.TaskID, "action", e.Action)
		},
		OnHandlerReturn: func(ctx context.Context, e *domain.HandlerEvent) {
			logger.DebugContext(ctx, "handler_return",
				"task_id", e.TaskID,
				"action", e.Action,
				"duration", e.Duration,
				"is_error", e.Err != nil,
			)
		},
		OnChainStarted: func(ctx context.Context, e *domain.ChainEvent) {
			logger.InfoContext(ctx, "chain_started", "task_id", e.TriggerID, "rule", e.Rule, "depth", e.Depth)
		},
		OnChainAbandoned: func(ctx context.Context, e *domain.ChainEvent) {
			logger.WarnContext(ctx, "chain_abandoned",
				"task_id", e.TriggerID,
				"rule", e.Rule,
				"depth", e.Depth,
				"reason", e.Reason,
				"err", e.Err,
			)
		},
	}
}
