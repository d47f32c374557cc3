package main

import (
	"fmt"
	"os"

	"github.com/leadbridge/marketplace/backend/internal/config"
	"github.com/leadbridge/marketplace/backend/internal/database"
	"github.com/leadbridge/marketplace/backend/internal/logger"
	"github.com/leadbridge/marketplace/backend/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	leadCount int
	seedValue uint64
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the lead database with fake data",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
			return err
		}
		if err := database.Initialize(cfg); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return database.Migrate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
		_ = logger.Close()
	},
	SilenceUsage: true,
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Seed a development data set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(seed.DevOptions())
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Seed a small data set for integration tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(seed.TestOptions())
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every lead and view",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := seed.NewSeeder(database.DB, 0).Clean(); err != nil {
			return err
		}
		logger.Log.Info("Database cleaned")
		return nil
	},
}

func run(opts seed.Options) error {
	if leadCount > 0 {
		opts.Leads = leadCount
	}
	leads, err := seed.NewSeeder(database.DB, seedValue).Seed(opts)
	if err != nil {
		return err
	}

	var views int64
	for _, l := range leads {
		views += l.ViewCount
	}
	logger.Log.Info("Seeding completed", zap.Int("leads", len(leads)), zap.Int64("views", views))
	return nil
}

func init() {
	rootCmd.PersistentFlags().IntVar(&leadCount, "count", 0, "number of leads to create (default depends on the data set)")
	rootCmd.PersistentFlags().Uint64Var(&seedValue, "seed", 0, "random seed for reproducible data (0 = random)")
	rootCmd.AddCommand(devCmd, testCmd, cleanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
