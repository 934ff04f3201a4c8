package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/elee1766/rune/src/config"
)

// ConfigCmd manages configuration files
type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" default:"1" help:"Print the effective configuration"`
	Init ConfigInitCmd `cmd:"" help:"Write a configuration file with the defaults"`
	Path ConfigPathCmd `cmd:"" help:"Print the configuration file locations"`
}

// ConfigShowCmd prints the merged configuration
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(cli *CLI) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := cli.loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.API.APIKey != "" {
		cfg.API.APIKey = "********"
	}
	return printJSON(os.Stdout, cfg)
}

// ConfigInitCmd writes a default configuration file
type ConfigInitCmd struct {
	Project bool `help:"Write the project file in the current directory instead of the user file"`
	Force   bool `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run(cli *CLI, logger *slog.Logger) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	path := config.UserConfigPath()
	if c.Project {
		path = config.ProjectConfigPath(root)
	}

	loader := config.NewLoader(root)
	exists, err := afero.Exists(loader.Fs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists && !c.Force {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", errUsage, path)
	}

	if err := loader.SaveFile(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	logger.Info("wrote config", "path", path)
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// ConfigPathCmd prints where configuration is read from
type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run() error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	fmt.Printf("user:    %s\n", config.UserConfigPath())
	fmt.Printf("project: %s\n", config.ProjectConfigPath(root))
	return nil
}
