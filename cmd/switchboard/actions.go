package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List registered actions and routing rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions(cmd)
		if err != nil {
			return err
		}
		inv, err := cli.Inspect(cmd.Context(), opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(inv)
		}
		fmt.Fprintln(out, "Actions:")
		for _, name := range inv.Actions {
			fmt.Fprintf(out, "  %s\n", name)
		}
		fmt.Fprintln(out, "Rules:")
		for _, name := range inv.Rules {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.Flags().Bool("json", false, "Print as JSON")
}
