package main

import (
	"fmt"
	"os"

	"github.com/leadbridge/marketplace/backend/internal/config"
	"github.com/leadbridge/marketplace/backend/internal/database"
	"github.com/leadbridge/marketplace/backend/internal/logger"
	"go.uber.org/zap"
)

// migrate applies the lead schema and exits. The server migrates on startup
// too; this is for deploys that run schema changes as a separate step.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()

	if err := database.Initialize(cfg); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer func() { _ = database.Close() }()

	logger.Log.Info("Running migrations", zap.String("driver", cfg.DBDriver))
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Migration failed", err)
	}
	logger.Log.Info("All migrations completed")
}
