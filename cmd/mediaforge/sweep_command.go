package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove leftover files from the temp directory",
		Long: "Open the temp file ledger, which sweeps leftovers when no other mediaforge\n" +
			"process holds the directory, and report what was removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToolchain(cmd, func(_ context.Context, tc *toolchain) error {
				result := tc.ledger.StartupSweep()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Temp directory: %s\n", tc.ledger.Dir())
				fmt.Fprintf(out, "Removed %d file(s)\n", len(result.Removed))
				for _, failure := range result.Errors {
					fmt.Fprintf(out, "  failed: %s (%s)\n", failure.Path, failure.Error)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d file(s) could not be removed", len(result.Errors))
				}
				return nil
			})
		},
	}
}
