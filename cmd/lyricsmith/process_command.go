package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lyricsmith/internal/config"
	"lyricsmith/internal/media/tags"
	"lyricsmith/internal/pipeline"
	"lyricsmith/internal/services"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var languages []string
	var outputDir string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Separate, transcribe, and translate one audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			info, err := os.Stat(source)
			if err != nil {
				return fmt.Errorf("inspect input %q: %w", source, err)
			}
			if info.IsDir() {
				return fmt.Errorf("input %q is a directory", source)
			}
			if !tags.Supported(source) {
				return fmt.Errorf("unsupported file type %q", filepath.Ext(source))
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(outputDir) != "" {
				expanded, err := config.ExpandPath(outputDir)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				if err := os.MkdirAll(expanded, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				cfg.Paths.OutputDir = expanded
			}

			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			store := ctx.openStore(logger)
			if store != nil {
				defer store.Close()
			}
			orchestrator, err := ctx.orchestrator(store, logger)
			if err != nil {
				return err
			}

			run, err := orchestrator.Process(cmd.Context(), pipeline.Request{
				Source:          source,
				TargetLanguages: languages,
			})
			if err != nil {
				if jsonOutput {
					runID := ""
					if run != nil {
						runID = run.ID
					}
					if writeErr := writeJSON(cmd, pipeline.FailureFor(runID, err)); writeErr != nil {
						return writeErr
					}
				}
				return processError(run, err)
			}

			if jsonOutput {
				return writeJSON(cmd, run.Bundle)
			}
			printRunSummary(cmd.OutOrStdout(), run, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&languages, "lang", "l", nil, "Target language (repeatable; defaults to translation.target_languages)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory override")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result bundle as JSON")
	return cmd
}

// processError turns a pipeline failure into a CLI error carrying the stable
// code and, when known, the run directory holding pipeline.log.
func processError(run *pipeline.Run, err error) error {
	if errors.Is(err, services.ErrValidation) {
		return err
	}
	details := services.Details(err)
	if run != nil && run.Dir != "" {
		return fmt.Errorf("%s: %s (see %s): %w", details.Code, details.Message, filepath.Join(run.Dir, pipeline.LogFile), err)
	}
	return fmt.Errorf("%s: %s: %w", details.Code, details.Message, err)
}

func printRunSummary(out io.Writer, run *pipeline.Run, colorize bool) {
	bundle := run.Bundle
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  %s\n", bundle.Message)
	fmt.Fprintf(out, "  Output: %s\n", run.Dir)
	if bundle.SeparationEngine != "" {
		engine := bundle.SeparationEngine
		if bundle.SeparationDegraded {
			engine += " (degraded)"
		}
		fmt.Fprintf(out, "  Separation: %s\n", engine)
	}
	if bundle.Lyrics != nil && bundle.Lyrics.DetectedLanguage != "" {
		fmt.Fprintf(out, "  Detected language: %s\n", bundle.Lyrics.DetectedLanguage)
	}
	fmt.Fprintln(out, renderStages(run.Stages, colorize))

	if len(run.Artifacts) > 0 {
		keys := make([]string, 0, len(run.Artifacts))
		for key := range run.Artifacts {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, key := range keys {
			rows = append(rows, []string{key, filepath.Base(run.Artifacts[key])})
		}
		fmt.Fprintln(out, renderTable([]string{"Artifact", "File"}, rows))
	}
	for _, msg := range run.Errors {
		fmt.Fprintf(out, "  note: %s\n", msg)
	}
}
