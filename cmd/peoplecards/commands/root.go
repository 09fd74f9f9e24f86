package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"peoplecards/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configDir *string
	verbose   *bool
)

var exporters telemetry.Telemetry

func init() {
	configDir = rootCmd.PersistentFlags().String("config-dir", "data", "The directory holding urls.json5 and locators.json5.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug reports.")
}

var rootCmd = &cobra.Command{
	Use:           "peoplecards",
	Short:         "peoplecards exports the people cards of a dnevnik school as tables.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		tel, err := telemetry.SetupFromEnv(cmd.Context(), "peoplecards")
		if err != nil {
			slog.Warn("failed to set up telemetry export", "err", err.Error())
			return
		}
		exporters = tel
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdownTelemetry()
	},
}

func shutdownTelemetry() {
	if !exporters.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := exporters.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err.Error())
	}
	exporters = telemetry.Telemetry{}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		shutdownTelemetry()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
