// Package cli provides the command-line interface for courier.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/courierchat/courier/internal/api"
	"github.com/courierchat/courier/internal/config"
	"github.com/courierchat/courier/internal/engine"
	"github.com/courierchat/courier/internal/metrics"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string

	// Shared state built by the root command
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	apiClient  *api.Client
	collector  *metrics.Collector
	eng        *engine.Engine
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Direct-message client for the courier message service",
	Long: `Courier is a terminal client for direct messages. It keeps a local
view of your conversations in sync with the message service, sends with
immediate optimistic feedback, and reconciles in the background while
the chat view is open.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)

		apiClient = api.New(cfg.ServerURL, cfg.Token).WithTimeout(cfg.Timeout)
		collector = metrics.NewCollector()
		eng = engine.New(apiClient, engine.Options{
			UserID:  cfg.UserID,
			Logger:  logger,
			Metrics: collector,
		})

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/courier/config.yml)")

	// Add subcommands
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(unreadCmd)
	rootCmd.AddCommand(chatCmd)
}
