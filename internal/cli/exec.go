package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/runner"
)

// ErrTaskFailed is returned by Exec when the submitted task did not complete.
var ErrTaskFailed = errors.New("task failed")

// Exec processes one intent, waits for the chains it triggers and prints every task of the chain.
func Exec(ctx context.Context, text string, opts RunOptions) error {
	cfg := opts.config()
	logger := createLogger(cfg.Log)

	clean, err := runner.Sanitizer{MaxBytes: cfg.Orchestrator.MaxIntentBytes}.Clean(text)
	if err != nil {
		return fmt.Errorf("input rejected: %w", err)
	}

	stack, err := createEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	task := stack.Engine.ProcessText(ctx, clean)
	stack.Engine.Wait()

	handler := createIOHandler(opts)
	if err := handler.Output(ctx, task); err != nil {
		return err
	}

	tasks, err := stack.Engine.Tasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.ID != task.ID && t.Chain.RootID == task.ID {
			if err := handler.Output(ctx, t); err != nil {
				return err
			}
		}
	}

	if task.Status != domain.TaskCompleted {
		return fmt.Errorf("%w: %w", ErrTaskFailed, task.Error)
	}
	return nil
}
