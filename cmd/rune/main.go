package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/elee1766/rune/src/app"
	"github.com/elee1766/rune/src/config"
	"github.com/elee1766/rune/src/orclient"
	"github.com/elee1766/rune/src/runeagent/toolsutil"
)

// CLI represents the main CLI structure
type CLI struct {
	APIKey   string `env:"OPENROUTER_API_KEY" help:"OpenRouter API key"`
	BaseURL  string `help:"Custom API base URL"`
	Model    string `short:"m" help:"Model to use, overriding the configuration"`
	LogLevel string `default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	LogFile  string `type:"path" help:"JSON log file (default: ${default_log_file})"`

	// Chat is the default command
	Chat     ChatCmd     `cmd:"" default:"withargs" help:"Start an interactive chat (default)"`
	Models   ModelsCmd   `cmd:"" help:"Model listing and information"`
	Sessions SessionsCmd `cmd:"" help:"Inspect stored sessions"`
	Tools    ToolsCmd    `cmd:"" help:"Inspect the built-in tools"`
	Config   ConfigCmd   `cmd:"" help:"Configuration files"`
	Migrate  MigrateCmd  `cmd:"" help:"Apply session database migrations"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rune"),
		kong.Description("Coding assistant that works in your project directory, powered by OpenRouter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{"default_log_file": config.DefaultLogPath()},
	)

	logger, closeLog := newLogger(cli.LogLevel, cli.LogFile)
	slog.SetDefault(logger)
	toolsutil.SetLogger(logger)

	err := ctx.Run(&cli, logger)
	closeLog()
	if err != nil {
		os.Exit(handleError(err, logger))
	}
}

// loadConfig reads the configuration files for root and applies the global
// flags on top.
func (cli *CLI) loadConfig(root string) (*config.Config, error) {
	loader := config.NewLoader(root)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}

	if cli.APIKey != "" {
		cfg.API.APIKey = cli.APIKey
	}
	if cli.BaseURL != "" {
		cfg.API.BaseURL = cli.BaseURL
	}
	if cli.Model != "" {
		cfg.Model = cli.Model
	}
	if err := loader.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	return cfg, nil
}

// newApp wires the services for the current directory.
func (cli *CLI) newApp(ctx context.Context, logger *slog.Logger) (*app.App, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := cli.loadConfig(root)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, app.Options{
		Root:   root,
		Config: cfg,
		Logger: logger,
	})
}

// newClient creates an OpenRouter client without the rest of the app.
func (cli *CLI) newClient(logger *slog.Logger) (*orclient.Client, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := cli.loadConfig(root)
	if err != nil {
		return nil, err
	}
	return orclient.NewClient(orclient.Config{
		APIKey:     cfg.API.APIKey,
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.APITimeout(),
		RetryCount: cfg.API.RetryCount,
		Logger:     logger,
	}), nil
}
