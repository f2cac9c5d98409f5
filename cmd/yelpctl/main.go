package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"yelp_advisor/internal/adapters/observability"
	"yelp_advisor/internal/shared"
)

var (
	cfg      shared.Config
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "yelpctl",
		Short: "Ask a serving endpoint for recommendations and explore the Yelp tables",
		Long: `yelpctl sends a free-text request to an LLM serving endpoint, ranks the
recommendations it returns and charts them. It also flattens and lists the
Yelp business overview and review tables.

Configuration comes from the environment (or a .env file), see SERVING_* and TABLE_*.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(addressesCmd())
	rootCmd.AddCommand(amenitiesCmd())
	rootCmd.AddCommand(reviewsCmd())
	rootCmd.AddCommand(missingReviewsCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cfg = shared.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	// the CLI always logs human-readable to stderr
	log.Logger = observability.NewLogger("dev", cfg.LogLevel)
	return nil
}
