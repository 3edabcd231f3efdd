package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"subgen/internal/config"
	"subgen/internal/history"
	"subgen/internal/logging"
	"subgen/internal/workdir"
)

// commandContext lazily loads shared state for subcommands so a bad config
// only surfaces for commands that actually need it.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
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
		cfg, resolvedPath, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

func (c *commandContext) workdirs() (*workdir.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return workdir.NewManager(cfg.Processing.Output.Root), nil
}

// openHistory opens the run ledger stored next to the work items.
func (c *commandContext) openHistory() (*history.Store, error) {
	manager, err := c.workdirs()
	if err != nil {
		return nil, err
	}
	return history.Open(filepath.Join(manager.OutputsRoot(), "history.db"))
}
