package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/eventdraw/pkg/logger"
)

var (
	// Global flags
	output   string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Offline simulations of the adaptive event selector",
	Long: `simulate replays many selection rounds without a server.

Each run draws the same number of rounds from the same pool with the
adaptive selector (one pass per preset) and with a uniform sampler, then
reports how often events repeat between rounds and how evenly picks spread.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
			return err
		}
		return logger.SetLevelString(logLevel)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}
