/*
main.go - Application entry point

PURPOSE:
  Command-line entry point for the placement points calculator. Runs the
  HTTP API, scores session backups offline and seeds the database.

COMMANDS:
  points serve                 Start the HTTP server
  points score <snapshot.json> Score a session backup and print the breakdown
  points seed                  Upsert the criterion catalog and preset flows

STARTUP SEQUENCE (serve):
  1. Load configuration (points_config.yaml, or defaults)
  2. Initialize zap logger
  3. Open the store (SQLite or PostgreSQL, per database.driver)
  4. Seed presets when seedOnStart is set
  5. Configure HTTP router and start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with the default local SQLite database
  ./points serve

  # Run with an explicit config file
  ./points --config=./deploy/points_config.yaml serve

  # Score a backup against the built-in presets
  ./points score metathesi-data-2025-09-01.json

  # Score against the flows stored in the configured database
  ./points score --db --flow=secondment backup.json

SEE ALSO:
  - config/config.go: Configuration file
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go, store/postgres/postgres.go: Stores
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/placement-points/config"
	"github.com/warp/placement-points/logging"
	"github.com/warp/placement-points/store"
	"github.com/warp/placement-points/store/postgres"
	"github.com/warp/placement-points/store/sqlite"
)

// App holds the dependencies shared by every command.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
}

var (
	configPath string
	app        *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "points",
		Short: "Placement points calculator",
		Long:  `Scores educator placement applications (new appointment, transfer, secondment) and serves the calculator API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to "+config.FileName+" (default: search . and $HOME)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp loads configuration and sets up the logger.
func initApp() error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app = &App{cfg: cfg, logger: logger}
	return nil
}

// openStore opens the store selected by database.driver.
func openStore(ctx context.Context, db config.Database) (store.Store, error) {
	switch db.Driver {
	case "postgres":
		return postgres.New(ctx, db.DSN)
	case "sqlite", "":
		return sqlite.New(db.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}
}
