package main

import (
	"fmt"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration, rules and bridge files",
	Long:  `Loads the configuration, builds the engine it describes (rules, bridge allow-list, store) and reports the first problem found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if err := cli.Validate(cmd.Context(), opts); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
