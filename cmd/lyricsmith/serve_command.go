package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lyricsmith/internal/api"
	"lyricsmith/internal/config"
	"lyricsmith/internal/inbox"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var withInbox bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lock, err := ctx.acquireInstanceLock()
			if err != nil {
				return err
			}
			defer lock.Unlock() //nolint:errcheck

			if !skipPreflight {
				if err := runStartupChecks(cmd, cfg, logger); err != nil {
					return err
				}
			}

			store := ctx.openStore(logger)
			if store != nil {
				defer store.Close()
			}
			orchestrator, err := ctx.orchestrator(store, logger)
			if err != nil {
				return err
			}

			var history api.RunStore
			if store != nil {
				history = store
			}
			server := api.New(api.Options{
				Bind:              cfg.Paths.APIBind,
				Token:             cfg.Paths.APIToken,
				OutputDir:         cfg.Paths.OutputDir,
				UploadDir:         filepath.Join(cfg.Paths.WorkDir, "uploads"),
				MaxUploadBytes:    int64(cfg.API.MaxUploadMB) << 20,
				MaxConcurrentRuns: cfg.API.MaxConcurrentRuns,
			}, orchestrator, history, logger)

			runCtx := cmd.Context()
			if err := server.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())

			if withInbox {
				if strings.TrimSpace(cfg.Paths.InboxDir) == "" {
					return fmt.Errorf("--watch requires paths.inbox_dir")
				}
				watcher := inbox.New(cfg.Paths.InboxDir, orchestrator, inbox.Options{
					TargetLanguages: cfg.Translation.TargetLanguages,
				}, logger)
				if err := watcher.Start(runCtx); err != nil {
					return err
				}
				defer watcher.Stop()
			}

			<-runCtx.Done()
			logger.Info("lyricsmith shutting down")
			server.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&withInbox, "watch", false, "Also process files dropped into paths.inbox_dir")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running preflight checks")
	return cmd
}

// runStartupChecks runs preflight without the LLM round trip and refuses to
// start when a required check fails.
func runStartupChecks(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{SkipLLM: true})
	for _, r := range results {
		if !r.Passed && r.Optional {
			logging.WarnWithContext(logger, "optional preflight check failed", "preflight_optional_failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldErrorHint, "run `lyricsmith status` for details"),
				logging.String(logging.FieldImpact, "some fallbacks are unavailable"),
			)
		}
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, fmt.Sprintf("%s (%s)", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, "; "))
	}
	return nil
}
