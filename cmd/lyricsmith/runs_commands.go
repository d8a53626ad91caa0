package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lyricsmith/internal/pipeline"
	"lyricsmith/internal/runstore"
)

const runTimeFormat = "2006-01-02 15:04"

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded pipeline runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsRemoveCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.ID,
					filepath.Base(rec.SourcePath),
					string(rec.Status),
					rec.DetectedLanguage,
					strings.Join(rec.Targets, ", "),
					rec.CreatedAt.Local().Format(runTimeFormat),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Source", "Status", "Language", "Targets", "Created"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run and its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.requireStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), id)
			if errors.Is(err, runstore.ErrNotFound) {
				return fmt.Errorf("run %s not found", id)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				if len(rec.Bundle) > 0 {
					return writeJSON(cmd, json.RawMessage(rec.Bundle))
				}
				return writeJSON(cmd, rec)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", rec.ID)
			fmt.Fprintf(out, "  Source: %s\n", rec.SourcePath)
			fmt.Fprintf(out, "  Status: %s\n", rec.Status)
			if rec.DetectedLanguage != "" {
				fmt.Fprintf(out, "  Detected language: %s\n", rec.DetectedLanguage)
			}
			if len(rec.Targets) > 0 {
				fmt.Fprintf(out, "  Targets: %s\n", strings.Join(rec.Targets, ", "))
			}
			if rec.RunDir != "" {
				fmt.Fprintf(out, "  Output: %s\n", rec.RunDir)
			}
			fmt.Fprintf(out, "  Created: %s\n", rec.CreatedAt.Local().Format(runTimeFormat))
			if rec.FinishedAt != nil {
				fmt.Fprintf(out, "  Finished: %s (%s)\n", rec.FinishedAt.Local().Format(runTimeFormat), rec.FinishedAt.Sub(rec.CreatedAt).Round(time.Second))
			}
			if rec.ErrorCode != "" {
				fmt.Fprintf(out, "  Error: %s: %s\n", rec.ErrorCode, rec.ErrorMessage)
			}

			stages := make(map[string]pipeline.StageStatus, len(rec.Stages))
			for name, status := range rec.Stages {
				stages[name] = pipeline.StageStatus(status)
			}
			fmt.Fprintln(out, renderStages(stages, shouldColorize(out)))
			printRunFiles(cmd, rec.RunDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the stored result bundle as JSON")
	return cmd
}

func printRunFiles(cmd *cobra.Command, dir string) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		rows = append(rows, []string{entry.Name(), strconv.FormatInt(info.Size(), 10)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	if len(rows) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"File", "Bytes"}, rows, 1))
	}
}

func newRunsRemoveCommand(ctx *commandContext) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a run from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.requireStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var runDir string
			if purge {
				if rec, err := store.Get(cmd.Context(), id); err == nil {
					runDir = rec.RunDir
				}
			}
			removed, err := store.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !removed {
				fmt.Fprintf(out, "Run %s not found\n", id)
				return nil
			}
			fmt.Fprintf(out, "Removed run %s\n", id)
			if purge && runDir != "" {
				if err := os.RemoveAll(runDir); err != nil {
					return fmt.Errorf("remove run directory: %w", err)
				}
				fmt.Fprintf(out, "Deleted %s\n", runDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete the run's output directory")
	return cmd
}

func parseRunID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid run id %q", raw)
	}
	return id, nil
}
