package main

import (
	"strings"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <intent>",
	Short: "Process a single intent and print its task chain",
	Example: `  switchboard exec '{"action":"vault.copy","parameters":{"src":"a.txt","dest":"b.txt"}}'
  switchboard exec --generator genai "copy a.txt to b.txt"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		if opts.JSON {
			opts.Rich = false
		}

		ctx, stop := signalContext(cmd)
		defer stop()
		return cli.Exec(ctx, strings.Join(args, " "), opts)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().Bool("json", false, "Print tasks as NDJSON")
}
