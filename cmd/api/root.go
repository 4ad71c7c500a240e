package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alfredoptarigan/candidate-screener/internal/config"
	"alfredoptarigan/candidate-screener/internal/logger"
)

var (
	jsonLogs  bool
	debugLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "candidate-screener",
	Short: "Candidate screening and interview API",
	Long: `Screens uploaded resumes against a job description in the background, ranks
candidates on a leaderboard and runs proctored AI interviews for the ones
that make the cut.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Emit JSON logs (overrides LOG_JSON)")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug logging (overrides LOG_DEBUG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(indexCmd)
}

// bootstrap loads configuration and opens the logger and database every
// subcommand needs.
func bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg := config.Load()
	if cmd.Flags().Changed("json") {
		cfg.Log.JSON = jsonLogs
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = debugLogs
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}
