// Package cmd wires the chatbet command-line interface.
//
// Following the pattern used by kubectl, hugo, and other standard Go
// CLI tools, all application logic lives here and main.go stays a
// minimal entry point.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chatbet/chatbet/internal/log"
)

var (
	flagLogLevel string
	flagLogJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "chatbet",
	Short: "ChatBet conversational sports betting assistant",
	Long: `ChatBet is an HTTP service that answers sports betting questions in
natural language. It resolves team and tournament names against live
sports data, explains odds, and places simulated bets against a
per-session balance.

Run "chatbet serve" to start the API server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. It is the single entry point called
// from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
}

// newLogger builds the process logger from the global flags.
func newLogger() (log.Logger, error) {
	level, err := parseLogLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(log.Config{Level: level, JSON: flagLogJSON}), nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
