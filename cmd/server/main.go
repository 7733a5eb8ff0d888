// Package main is the entry point for the momentkeep server.
//
// COMMANDS:
//
//	server [serve]   migrate the schema, then serve the API (default)
//	server migrate   migrate the schema and exit
//
// Both accept --config with a YAML or TOML file. A .env file in the working
// directory is loaded first, so every setting can also come from there.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sakif/momentkeep/internal/config"
	"github.com/sakif/momentkeep/internal/logging"
	"github.com/sakif/momentkeep/internal/server"
)

var cfgFile string

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "momentkeep API server",
		Long:          "Serves journals, categories, habits, todos, accounts and file uploads over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML or TOML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and serve the API",
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE:  runMigrate,
	})
	return root
}

// setup loads the configuration and builds the logger from it.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until SIGINT/SIGTERM.
	return srv.Start()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := server.OpenDatabase(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("schema up to date",
		slog.String("database", cfg.Database.Path),
		slog.Uint64("version", uint64(version)),
	)
	return nil
}
