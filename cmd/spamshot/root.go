package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/spamshot/internal/logger"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spamshot",
		Short: "Offline spam analysis for call and SMS screenshots",
		Long: `spamshot runs the same OCR, normalization and spam classification the
API server uses, without a database or blob store. Useful for checking a
screenshot or a piece of text before wiring a client against the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			level, _ := cmd.Flags().GetString("log-level")
			lc := logger.DefaultConfig()
			lc.Level, lc.Format, lc.Output = level, "console", "stderr"
			_, _, err := logger.Setup(lc)
			return err
		},
	}
	root.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd(), newClassifyCmd())
	return root
}
