package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elee1766/rune/src/storage"
)

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" default:"1" help:"Run pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show migration status"`
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct {
	DBPath string `type:"path" help:"Database path (defaults to config)"`
}

// Run executes the migrate up command
func (c *MigrateUpCmd) Run(cli *CLI, logger *slog.Logger) error {
	dbPath, err := cli.databasePath(c.DBPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create database directory: %w", errSession, err)
	}

	db, err := storage.Connect(dbPath)
	if err != nil {
		return fmt.Errorf("%w: failed to connect to database: %w", errSession, err)
	}
	defer db.Close()

	applied, err := db.Migrate(context.Background())
	if err != nil {
		return fmt.Errorf("%w: %w", errSession, err)
	}
	logger.Info("migrated database", "path", dbPath, "applied", applied)

	if len(applied) == 0 {
		fmt.Printf("%s is up to date (version %d)\n", dbPath, storage.LatestVersion())
		return nil
	}
	fmt.Printf("Applied migrations %v to %s\n", applied, dbPath)
	return nil
}

// MigrateStatusCmd shows migration status
type MigrateStatusCmd struct {
	DBPath string `type:"path" help:"Database path (defaults to config)"`
}

// Run executes the migrate status command
func (c *MigrateStatusCmd) Run(cli *CLI) error {
	dbPath, err := cli.databasePath(c.DBPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("%w: %w", errSession, err)
	}

	db, err := storage.Connect(dbPath)
	if err != nil {
		return fmt.Errorf("%w: failed to connect to database: %w", errSession, err)
	}
	defer db.Close()

	// A database never migrated has no schema_migrations table yet.
	versions, err := db.AppliedVersions(context.Background())
	if err != nil {
		versions = nil
	}

	current := 0
	if len(versions) > 0 {
		current = versions[len(versions)-1]
	}
	fmt.Printf("Database: %s\n", dbPath)
	fmt.Printf("Version:  %d of %d\n", current, storage.LatestVersion())
	if current < storage.LatestVersion() {
		fmt.Println("Pending migrations: run `rune migrate up`")
	}
	return nil
}

func (cli *CLI) databasePath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := cli.loadConfig(root)
	if err != nil {
		return "", err
	}
	return cfg.Session.DatabasePath, nil
}
