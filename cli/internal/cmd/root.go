package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leadbridge/marketplace/cli/pkg/client"
	"github.com/leadbridge/marketplace/cli/pkg/config"
	clierrors "github.com/leadbridge/marketplace/cli/pkg/errors"
	"github.com/leadbridge/marketplace/cli/pkg/logger"
	"github.com/leadbridge/marketplace/cli/pkg/output"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
)

var rootCmd = &cobra.Command{
	Use:   "leadbridge",
	Short: "Leadbridge CLI - Browse marketplace leads",
	Long: `Leadbridge CLI is a terminal client for the Leadbridge lead marketplace.
Browse buy and sell leads, open their details and replay card visibility
events against the view counter.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}

		logger.Init(verbose)

		if !output.ValidateOutputFormat(outputFmt) {
			return clierrors.ValidationError("output", "must be one of: text, json, table")
		}
		config.Set("output.format", outputFmt)

		client.Init()
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, clierrors.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/leadbridge/config.toml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "text", "Output format: text, json, table")
	_ = rootCmd.RegisterFlagCompletionFunc("output", fixedCompletion("text", "json", "table"))

	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(versionCmd)
}
