package main

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facenav/internal/config"
	"github.com/teslashibe/go-facenav/internal/log"
	"github.com/teslashibe/go-facenav/pkg/debug"
)

// commandContext holds the persistent flags and the lazily loaded config.
type commandContext struct {
	configFlag   string
	logLevelFlag string
	debugFlag    bool
	gesturesFlag bool

	config       *config.Config
	resolvedPath string
	fileExists   bool
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, path, exists, err := config.Load(c.configFlag)
	if err != nil {
		return nil, err
	}
	if c.logLevelFlag != "" {
		cfg.LogLevel = c.logLevelFlag
	}
	debug.Enabled = c.debugFlag || c.gesturesFlag
	debug.Gestures = c.gesturesFlag

	c.config, c.resolvedPath, c.fileExists = cfg, path, exists
	log.Init(cfg.LogLevel)
	if exists {
		log.Debug("config loaded", "path", path)
	}
	return cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for cur := cmd; cur != nil; cur = cur.Parent() {
		if cur.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
