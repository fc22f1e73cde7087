/*
Package runner implements the interactive loop that feeds intents to the Switchboard engine.

It reads one intent per line through a pluggable IOHandler, submits it, and presents the
resulting task. Follow-up tasks spawned by the router are reported as they resolve.

# Key Components

  - Runner: reads, submits and reports until EOF, "exit" or cancellation.
  - IOHandler: decouples how intents arrive and how tasks are shown (text or NDJSON).
  - TextHandler: REPL with coloured status labels and optional markdown rendering.
  - JSONHandler: newline-delimited JSON for scripts and parent processes.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
