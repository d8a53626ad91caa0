package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lyricsmith/internal/inbox"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var languages []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process audio files dropped into the inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Paths.InboxDir) == "" {
				return fmt.Errorf("paths.inbox_dir is not configured")
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

			if err := runStartupChecks(cmd, cfg, logger); err != nil {
				return err
			}

			store := ctx.openStore(logger)
			if store != nil {
				defer store.Close()
			}
			orchestrator, err := ctx.orchestrator(store, logger)
			if err != nil {
				return err
			}

			targets := languages
			if len(targets) == 0 {
				targets = cfg.Translation.TargetLanguages
			}
			watcher := inbox.New(cfg.Paths.InboxDir, orchestrator, inbox.Options{TargetLanguages: targets}, logger)
			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", cfg.Paths.InboxDir)

			<-cmd.Context().Done()
			watcher.Stop()
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&languages, "lang", "l", nil, "Target language (repeatable; defaults to translation.target_languages)")
	return cmd
}
