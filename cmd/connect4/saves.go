package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-connect4/internal/engine"
	"github.com/vovakirdan/tui-connect4/internal/storage"
)

var flagRawSnapshot bool

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage save slots",
	Long: `List, inspect or delete named save slots.

Slots are written by the S key in 'connect4 play' and by 'connect4 replay --save'.
Resume one with 'connect4 play --load <name>'.`,
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List save slots",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withStore(func(store *storage.Store) error {
			return listSaves(cmd.OutOrStdout(), store)
		})
	},
}

var savesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print the board of a save slot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(func(store *storage.Store) error {
			return showSave(cmd.OutOrStdout(), store, args[0], flagRawSnapshot)
		})
	},
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a save slot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(func(store *storage.Store) error {
			if err := store.DeleteSave(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
			return nil
		})
	},
}

func init() {
	savesShowCmd.Flags().BoolVar(&flagRawSnapshot, "raw", false, "Print the YAML snapshot instead of the board")

	savesCmd.AddCommand(savesListCmd)
	savesCmd.AddCommand(savesShowCmd)
	savesCmd.AddCommand(savesDeleteCmd)
}

// withStore opens the database for fn and reports any error.
func withStore(fn func(*storage.Store) error) {
	store, err := openStore()
	if err != nil {
		fail(fmt.Errorf("opening games database: %w", err))
	}
	err = fn(store)
	store.Close()
	if err != nil {
		fail(err)
	}
}

func listSaves(out io.Writer, store *storage.Store) error {
	slots, err := store.ListSaves()
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		fmt.Fprintln(out, "No save slots.")
		return nil
	}

	fmt.Fprintf(out, "  %-20s  %-16s  %s\n", "Name", "Updated", "State")
	fmt.Fprintf(out, "  %-20s  %-16s  %s\n", "----", "-------", "-----")
	for _, slot := range slots {
		state := "unreadable"
		if g, err := engine.Deserialize(slot.Snapshot); err == nil {
			state = fmt.Sprintf("%s, %d moves", g.Status(), g.MoveCount())
		}
		fmt.Fprintf(out, "  %-20s  %-16s  %s\n", slot.Name, slot.UpdatedAt.Format("2006-01-02 15:04"), state)
	}
	return nil
}

func showSave(out io.Writer, store *storage.Store, name string, raw bool) error {
	slot, err := store.GetSave(name)
	if err != nil {
		return err
	}
	if raw {
		fmt.Fprint(out, slot.Snapshot)
		return nil
	}

	g, err := engine.Deserialize(slot.Snapshot)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	fmt.Fprintln(out, g.Board())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Status: %s\n", g.Status())
	if winner := g.WinningPlayerID(); winner != engine.NoPlayer {
		fmt.Fprintf(out, "Winner: Player %d\n", winner)
	} else if !g.Status().IsTerminal() {
		fmt.Fprintf(out, "To move: Player %d\n", g.CurrentPlayerID())
	}
	fmt.Fprintf(out, "Moves: %d (%s)\n", g.MoveCount(), g.MoveSequence())
	fmt.Fprintf(out, "Time: %s total, Player 1 %s, Player 2 %s\n",
		g.TotalElapsedTime().Round(1e9), g.ElapsedTimeForPlayer(1).Round(1e9), g.ElapsedTimeForPlayer(2).Round(1e9))
	return nil
}
