package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"

	"github.com/docshelfhq/docshelf/internal/config"
)

var migrateConfigPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateConfigPath, "config", config.DefaultConfigPath(), "path to config file")
}

func runMigrate(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load(goutils.Env("DOCSHELF_CONFIG", migrateConfigPath))
	if err != nil {
		return err
	}

	ws, err := initWorkspace(cfg)
	if err != nil {
		return fmt.Errorf("initializing workspace: %w", err)
	}

	store, err := initStore(cfg, ws, logger, nil)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Printf("migrations applied (%s)\n", store.Driver())
	return nil
}
