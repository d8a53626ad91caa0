package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lyricsmith/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipLLM bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run preflight checks for binaries, directories, disk, and the LLM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{SkipLLM: skipLLM})
			failed := preflight.Failed(results)

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if ctx.configPath != "" {
					fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
				}
				fmt.Fprintln(out, renderPreflight(results, shouldColorize(out)))
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Skip the LLM connectivity check")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
