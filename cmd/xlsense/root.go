// Package main provides the CLI entrypoint for xlsense.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"intellisense-overlay/internal/config"
	"intellisense-overlay/internal/logger"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	configSvc  *config.Service
	globalOpts struct {
		verbose    bool
		configPath string
	}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "xlsense",
	Short: "Track the spreadsheet editor's focused edit control",
	Long: `xlsense follows keyboard focus inside the spreadsheet host and reports
which formula bar or in-cell editor is active, what it contains and where a
completion popup should be anchored.

It must run inside, or be injected into, the host process: focus owned by
any other process is ignored.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if globalOpts.configPath != "" {
			configSvc, err = config.NewWithPath(globalOpts.configPath)
		} else {
			configSvc, err = config.New()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg := configSvc.Get()
		log, err := logger.New(logger.Options{
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Verbose: globalOpts.verbose,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		zap.ReplaceGlobals(log)
		cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.FromContext(cmd.Context()).Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.xlsense/config.toml)")
}

func main() {
	Execute()
}
