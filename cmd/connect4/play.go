package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-connect4/internal/engine"
	"github.com/vovakirdan/tui-connect4/internal/platform/tui"
	"github.com/vovakirdan/tui-connect4/internal/storage"
)

var flagLoad string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game",
	Long: `Start a hot-seat game in this terminal.

Controls:
  Left/Right, h/l  - Move the drop cursor
  Enter/Space      - Drop a piece under the cursor
  1-9              - Drop a piece in that column
  U / R            - Undo / redo
  F                - Forfeit for the player to move
  N                - New game
  S                - Save to the slot (the --load name, or "quicksave")
  Q/Ctrl+C         - Quit

Finished games are recorded in the database.

Examples:
  connect4 play
  connect4 play --load evening`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagLoad, "load", "", "Resume the named save slot")
}

func runPlay(_ *cobra.Command, _ []string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fail(errors.New("play needs an interactive terminal; use 'connect4 replay' for scripted games"))
	}

	// Open storage
	store, err := openStore()
	if err != nil {
		logger.Warn("could not open games database", "error", err)
		// Continue without storage - game still works
		store = nil
	}

	game, err := loadGame(store, flagLoad)
	if err != nil {
		if store != nil {
			store.Close()
		}
		fail(err)
	}

	// Info logs would scribble over the alternate screen.
	sessionLogger := logger.With()
	if sessionLogger.GetLevel() < log.ErrorLevel {
		sessionLogger.SetLevel(log.ErrorLevel)
	}

	opts := []tui.ModelOption{
		tui.WithLogger(sessionLogger),
		tui.WithSaveName(flagLoad),
	}
	if store != nil {
		opts = append(opts, tui.WithStore(store))
	}

	runErr := tui.Run(game, opts...)

	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fail(fmt.Errorf("running game: %w", runErr))
	}
}

// loadGame resumes the named slot, or starts a fresh game when name is empty.
func loadGame(store *storage.Store, name string) (*engine.Game, error) {
	if name == "" {
		return newGame(), nil
	}
	if store == nil {
		return nil, fmt.Errorf("cannot load %q without a database", name)
	}

	slot, err := store.GetSave(name)
	if err != nil {
		return nil, err
	}
	game, err := engine.Deserialize(slot.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("save %q: %w", name, err)
	}
	return game, nil
}
