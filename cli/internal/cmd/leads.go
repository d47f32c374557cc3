package cmd

import (
	"io"
	"os"
	"time"

	"github.com/leadbridge/marketplace/cli/pkg/config"
	clierrors "github.com/leadbridge/marketplace/cli/pkg/errors"
	"github.com/leadbridge/marketplace/cli/pkg/service"
	"github.com/leadbridge/marketplace/cli/pkg/viewtrack"
	"github.com/spf13/cobra"
)

var (
	listPage     int
	listPageSize int
	listPopular  bool

	watchFile      string
	watchThreshold float64
	watchDelay     time.Duration
	watchImmediate bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Browse marketplace leads",
	Long:  "List leads, open lead details and report lead views",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listPage < 1 {
			return clierrors.ValidationError("page", "must be at least 1")
		}
		if listPageSize < 1 || listPageSize > 100 {
			return clierrors.ValidationError("page-size", "must be between 1 and 100")
		}
		return service.NewLeadService().ListLeads(listPage, listPageSize, listPopular)
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show lead details",
	Long:  "Show a lead's details. Opening a lead counts as a view.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewLeadService().ShowLead(cmd.Context(), args[0])
	},
}

var leadsViewCmd = &cobra.Command{
	Use:   "view <lead-id>",
	Short: "Report a lead view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewLeadService().ViewLead(cmd.Context(), args[0])
	},
}

var leadsStatsCmd = &cobra.Command{
	Use:   "stats <lead-id>",
	Short: "Show lead view statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewLeadService().LeadStats(args[0])
	},
}

var leadsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Replay card visibility events",
	Long: `Read visibility events from stdin (or --file) and report lead views the
way a scrolling list would. One event per line:

  <lead-id> <ratio>   the card is <ratio> (0..1) visible
  hide <lead-id>      the card was removed from the list
  reset               start a new tracking session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := viewtrack.ObserverConfig{
			Threshold: config.GetFloat("track.threshold"),
			Delay:     time.Duration(config.GetInt("track.delay_ms")) * time.Millisecond,
			Immediate: watchImmediate,
		}
		if cmd.Flags().Changed("threshold") {
			cfg.Threshold = watchThreshold
		}
		if cmd.Flags().Changed("delay") {
			cfg.Delay = watchDelay
		}
		if cfg.Threshold < 0 || cfg.Threshold > 1 {
			return clierrors.ValidationError("threshold", "must be between 0 and 1")
		}

		var in io.Reader = cmd.InOrStdin()
		if watchFile != "" && watchFile != "-" {
			f, err := os.Open(watchFile)
			if err != nil {
				return clierrors.FileError(watchFile, err)
			}
			defer f.Close()
			in = f
		}

		return service.NewLeadService().Watch(cmd.Context(), in, cfg)
	},
}

func init() {
	leadsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	leadsListCmd.Flags().IntVar(&listPageSize, "page-size", 20, "Leads per page")
	leadsListCmd.Flags().BoolVar(&listPopular, "popular", false, "Sort by view count")

	leadsWatchCmd.Flags().StringVarP(&watchFile, "file", "f", "", "Read events from file instead of stdin")
	leadsWatchCmd.Flags().Float64Var(&watchThreshold, "threshold", viewtrack.DefaultThreshold, "Visible fraction that counts as seen (default from track.threshold)")
	leadsWatchCmd.Flags().DurationVar(&watchDelay, "delay", viewtrack.DefaultDelay, "Debounce window before reporting (default from track.delay_ms)")
	leadsWatchCmd.Flags().BoolVar(&watchImmediate, "immediate", false, "Report as soon as a card becomes visible")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsViewCmd)
	leadsCmd.AddCommand(leadsStatsCmd)
	leadsCmd.AddCommand(leadsWatchCmd)
}
