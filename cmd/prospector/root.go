package main

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/prospector/internal/logging"
)

var (
	logLevel  string
	logFormat string
	logger    *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "prospector",
	Short: "Probabilistic-restart Nelder-Mead for the prospecting game",
	Long: `Prospector searches hidden value fields with a budget of queries,
restarting a bounded Nelder-Mead simplex away from the places it has
already explored.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewLogger(&logging.Config{
			Level:  logLevel,
			Format: logFormat,
			Output: "stderr",
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (json, text)")
}
