// connect4 is a terminal Connect Four game with undo/redo, save slots and SSH play.
//
// Usage:
//
//	connect4 play                - Play a hot-seat game in the terminal
//	connect4 serve               - Start SSH server for remote play
//	connect4 replay <moves>      - Apply a move sequence and print the result
//	connect4 history             - Show recently finished games
//	connect4 saves list          - Manage save slots
//
// Global flags:
//
//	--config <path>     - Configuration file (default: search ~/.connect4, ./configs)
//	--db <path>         - Database path (default: ~/.connect4/connect4.db)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-connect4/internal/config"
	"github.com/vovakirdan/tui-connect4/internal/engine"
	"github.com/vovakirdan/tui-connect4/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string

	// Resolved before any subcommand runs
	appConfig config.Config
	logger    *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "connect4",
	Short: "Connect Four in your terminal",
	Long: `Connect Four for two players sharing a keyboard, or over SSH.

Available commands:
  play     - Play a game in this terminal
  serve    - Start SSH server for remote play
  replay   - Apply a move sequence such as 3344 and print the board
  history  - Show recently finished games and totals
  saves    - List, show or delete save slots

Examples:
  connect4 play
  connect4 play --load evening
  connect4 replay 0101010
  connect4 serve --ssh :2222
  connect4 history --limit 20`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to games database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(savesCmd)
}

// setup loads .env, the configuration and flag overrides, then builds the root logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(); err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	appConfig = cfg

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "connect4",
		Level:           cfg.LogLevel(),
	})
	logger.Debug("configuration loaded", "db", cfg.Storage.Path, "board", fmt.Sprintf("%dx%d", cfg.Board.Rows, cfg.Board.Columns))
	return nil
}

// newGame creates an empty game sized from the configuration.
func newGame() *engine.Game {
	return engine.New(engine.WithBoardSize(appConfig.Board.Rows, appConfig.Board.Columns))
}

// openStore opens the configured database.
func openStore() (*storage.Store, error) {
	return storage.Open(appConfig.Storage.Path)
}

// fail prints err the way every command reports errors and exits.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
