package main

import (
	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read intents from stdin, one per line",
	Long: `Starts an interactive session: every line is an intent (free text or a JSON
action object) and every resolved task is printed. Type 'exit' or 'quit' to leave.

With --json, input lines are JSON strings or intent objects and output is NDJSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		if opts.JSON {
			opts.Rich = false
		}

		ctx, stop := signalContext(cmd)
		defer stop()
		return cli.RunSession(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "No banner and no follow-up notices")
	runCmd.Flags().Bool("json", false, "NDJSON input/output")
	runCmd.Flags().Bool("confirm", false, "Ask before running bridged actions")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
