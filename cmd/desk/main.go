// Command desk is the terminal client for the listing desk: it runs listing
// searches against the API (or an exported file) and manages the recent
// search history.
package main

import (
	"fmt"
	"os"

	"buyersdesk/config"
	"buyersdesk/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "desk",
	Short: "Search and triage property listings",
	Long: `desk queries the listing desk from the terminal.

Searches run through the same query session the web client uses, so
filters, sorting and paging behave identically. Use --offline to run a
search against a JSON export instead of the API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, ".env")
		if err != nil {
			return err
		}
		logger, err = logging.NewCLI(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "buyersdesk.yaml", "path to YAML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	registerSearchFlags(searchCmd.Flags())
	recentCmd.AddCommand(recentListCmd, recentClearCmd)
	rootCmd.AddCommand(searchCmd, recentCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
