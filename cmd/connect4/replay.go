package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-connect4/internal/engine"
	"github.com/vovakirdan/tui-connect4/internal/storage"
)

var (
	flagShowSnapshot bool
	flagSaveAs       string
)

var replayCmd = &cobra.Command{
	Use:   "replay <moves>",
	Short: "Apply a move sequence and print the result",
	Long: `Apply a move sequence without the interactive UI and print the board.

Moves are zero-based column numbers, one character per move. Whitespace
is ignored. Replay stops with an error at the first illegal move.

Examples:
  connect4 replay 0101010
  connect4 replay "33 44 2" --snapshot
  connect4 replay 3324 --save opening`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&flagShowSnapshot, "snapshot", false, "Print the YAML snapshot after the board")
	replayCmd.Flags().StringVar(&flagSaveAs, "save", "", "Store the resulting game in the named save slot")
}

// replayOptions controls what replay prints and stores.
type replayOptions struct {
	snapshot bool
	saveAs   string
	color    bool
}

func runReplay(cmd *cobra.Command, args []string) {
	opts := replayOptions{
		snapshot: flagShowSnapshot,
		saveAs:   flagSaveAs,
		color:    cmd.OutOrStdout() == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())),
	}

	if err := replayCommand(cmd.OutOrStdout(), args[0], opts); err != nil {
		fail(err)
	}
}

// replayCommand opens the database when the result is to be saved, then runs replay.
func replayCommand(out io.Writer, seq string, opts replayOptions) error {
	var store *storage.Store
	if opts.saveAs != "" {
		var err error
		store, err = openStore()
		if err != nil {
			return err
		}
		defer store.Close()
	}
	return replay(out, newGame(), store, seq, opts)
}

// replay applies seq to g and writes the board, outcome and optional snapshot to out.
// On an illegal move the board so far is still printed before the error is returned.
func replay(out io.Writer, g *engine.Game, store *storage.Store, seq string, opts replayOptions) error {
	_, replayErr := engine.ReplayMoves(g, seq)

	fmt.Fprintln(out, renderBoard(g.Board(), opts.color))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Status: %s\n", g.Status())
	if winner := g.WinningPlayerID(); winner != engine.NoPlayer {
		fmt.Fprintf(out, "Winner: Player %d\n", winner)
	} else if !g.Status().IsTerminal() {
		fmt.Fprintf(out, "To move: Player %d\n", g.CurrentPlayerID())
	}
	fmt.Fprintf(out, "Moves: %d (%s)\n", g.MoveCount(), g.MoveSequence())

	if replayErr != nil {
		return replayErr
	}

	if !opts.snapshot && opts.saveAs == "" {
		return nil
	}

	data, err := g.Serialize()
	if err != nil {
		return err
	}
	if opts.snapshot {
		fmt.Fprintln(out)
		fmt.Fprint(out, data)
	}
	if opts.saveAs != "" {
		if store == nil {
			return fmt.Errorf("cannot save %q without a database", opts.saveAs)
		}
		if err := store.PutSave(opts.saveAs, data); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved to %q\n", opts.saveAs)
	}
	return nil
}

var (
	firstPiece  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("X")
	secondPiece = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("O")
)

// renderBoard colours the X/O pieces of an ASCII board for terminals.
func renderBoard(board string, color bool) string {
	if !color {
		return board
	}
	return strings.NewReplacer("X", firstPiece, "O", secondPiece).Replace(board)
}
