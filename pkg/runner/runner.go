package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ContentRenderer transforms markdown before it is printed.
// This allows TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner handles the read-submit-report loop using the provided IO.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on stdin/stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Headless disables the greeting and follow-up notices.
	Headless bool

	// FollowUps reports router-spawned tasks through SystemOutput.
	FollowUps bool
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:    slog.New(slog.DiscardHandler),
		FollowUps: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes intents until the input ends, the user types exit/quit, or ctx is cancelled.
// Chained tasks still in flight are awaited before returning.
func (r *Runner) Run(ctx context.Context, engine Processor) error {
	handler := r.resolveHandler()

	if r.FollowUps && !r.Headless {
		tok := engine.On(domain.EventAny, r.followUpListener(ctx, handler))
		defer engine.Off(tok)
	}
	defer engine.Wait()

	for {
		text, err := handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.Logger.Debug("runner stopped", "err", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return nil
		}

		task := engine.ProcessText(ctx, text)
		r.Logger.Debug("intent processed", "task_id", task.ID, "status", task.Status)

		if err := handler.Output(ctx, task); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// followUpListener reports chained tasks once they resolve.
func (r *Runner) followUpListener(ctx context.Context, handler IOHandler) func(domain.Event) {
	return func(evt domain.Event) {
		if evt.Type != domain.EventTaskCompleted && evt.Type != domain.EventTaskFailed {
			return
		}
		te, ok := evt.Payload.(domain.TaskEvent)
		if !ok || te.Chain.Depth == 0 {
			return
		}
		name := "?"
		if te.Action != nil {
			name = te.Action.Name
		}
		msg := fmt.Sprintf("follow-up %s via %s: %s", name, te.Chain.Rule, strings.TrimPrefix(string(evt.Type), "task:"))
		if err := handler.SystemOutput(ctx, msg); err != nil {
			r.Logger.Warn("failed to report follow-up", "task_id", te.TaskID, "err", err)
		}
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(os.Stdin, os.Stdout)
	if !r.Headless {
		fmt.Fprintln(os.Stdout, "--- Switchboard (type 'exit' to quit) ---")
	}
	r.Handler = th
	return th
}
