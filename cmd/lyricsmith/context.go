package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"lyricsmith/internal/config"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/pipeline"
	"lyricsmith/internal/runstore"
)

const instanceLockFile = "lyricsmith.lock"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// openStore opens run history. A store that fails to open is reported and
// skipped so processing still works without history.
func (c *commandContext) openStore(logger *slog.Logger) *runstore.Store {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil
	}
	store, err := runstore.Open(cfg.Paths.LogDir)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "runstore_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions or remove a corrupt runs.db"),
			logging.String(logging.FieldImpact, "runs are not recorded"),
		)
		return nil
	}
	return store
}

func (c *commandContext) requireStore() (*runstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := runstore.Open(cfg.Paths.LogDir)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return store, nil
}

// orchestrator wires the production pipeline. store may be nil.
func (c *commandContext) orchestrator(store *runstore.Store, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	var history pipeline.Store
	if store != nil {
		history = store
	}
	return pipeline.NewFromConfig(cfg, history, logger), nil
}

// acquireInstanceLock keeps serve and watch from running twice against the
// same log directory.
func (c *commandContext) acquireInstanceLock() (*flock.Flock, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, instanceLockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another lyricsmith serve or watch instance is already running")
	}
	return lock, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
