package cli

import (
	"context"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/presentation/tui"
	"github.com/aretw0/switchboard/pkg/runner"
)

// RunSession reads intents line by line until exit, EOF or ctx cancellation.
func RunSession(ctx context.Context, opts RunOptions) error {
	cfg := opts.config()
	logger := createLogger(cfg.Log)
	out := opts.output()
	interactive := !opts.JSON && !opts.Headless

	handler := createIOHandler(opts)

	var extra []switchboard.Option
	if cfg.Bridge.Confirm && interactive {
		extra = append(extra, switchboard.WithMiddleware(runner.ConfirmationMiddleware(handler, runner.Bridged)))
	}

	stack, err := createEngine(ctx, cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer stack.Close()

	if interactive {
		tui.PrintBanner(out, opts.Version)
	}
	logger.Debug("session started", "bridge", cfg.Bridge.Kind, "store", cfg.Store.Kind, "rules", stack.Engine.Rules())

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
		runner.WithHeadless(opts.Headless),
	)
	runErr := r.Run(ctx, stack.Engine)

	if interactive {
		if ctx.Err() != nil {
			printSystemMessage(out, "Interrupted.")
		} else {
			printSystemMessage(out, "Bye!")
		}
	}
	return handleExecutionError(runErr)
}

func createIOHandler(opts RunOptions) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.input(), opts.output())
	}
	var textOpts []runner.TextHandlerOption
	if opts.Rich {
		textOpts = append(textOpts,
			runner.WithTextHandlerRenderer(tui.NewRenderer()),
			runner.WithColorProfile(tui.ColorProfile(opts.output())),
		)
	}
	return runner.NewTextHandler(opts.input(), opts.output(), textOpts...)
}
