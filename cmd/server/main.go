package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JustJay7/court-case-tracker/internal/cache"
	"github.com/JustJay7/court-case-tracker/internal/config"
	"github.com/JustJay7/court-case-tracker/internal/database"
	"github.com/JustJay7/court-case-tracker/internal/server"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "court-case-tracker",
	Short: "Court case lookup and cause list service",
	Long: `court-case-tracker looks up Indian court cases by type, number and year,
stores one canonical record per case and keeps court cause lists.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, fetchCmd, refreshCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		// Initialize migrates as part of opening the database.
		if _, err := openDatabase(cfg); err != nil {
			return err
		}
		log.Info("Database migrations completed successfully")
		return nil
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	c, err := cache.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	adapter, err := server.NewAdapter(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize court adapter: %w", err)
	}

	srv := server.New(cfg, db, c, adapter, log)

	log.Info("Starting Court Case Tracker",
		"host", cfg.Host,
		"port", cfg.Port,
		"court", cfg.CourtName,
		"adapter", cfg.Adapter,
		"cache", cfg.CacheBackend,
	)

	return srv.Run()
}

func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == "postgres" {
		dsn = cfg.DatabaseDSN
	}
	db, err := database.Initialize(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
