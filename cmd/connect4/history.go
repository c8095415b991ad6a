package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-connect4/internal/engine"
	"github.com/vovakirdan/tui-connect4/internal/storage"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently finished games",
	Long: `Display the most recent finished games and overall results.

Examples:
  connect4 history
  connect4 history --limit 25`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of games to show")
}

func runHistory(cmd *cobra.Command, _ []string) {
	if err := historyCommand(cmd.OutOrStdout(), flagHistoryLimit); err != nil {
		fail(err)
	}
}

func historyCommand(out io.Writer, limit int) error {
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("opening games database: %w", err)
	}
	defer store.Close()

	return printHistory(out, store, limit)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// printHistory writes a table of recent games followed by outcome totals.
func printHistory(out io.Writer, store *storage.Store, limit int) error {
	games, err := store.RecentGames(limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Recent games")
	fmt.Fprintln(out)

	if len(games) == 0 {
		fmt.Fprintln(out, "No games recorded yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Play 'connect4 play' to record the first one!")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "Date", "Result", "Moves", "Duration")

	for _, g := range games {
		t.Row(
			shortID(g.ID),
			g.CreatedAt.Format("2006-01-02 15:04"),
			describeResult(g),
			fmt.Sprintf("%d", g.MoveCount),
			g.Duration.Round(1e9).String(),
		)
	}
	fmt.Fprintln(out, t.Render())

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Games: %d  Wins: %d  Draws: %d  Forfeits: %d\n", stats.Games, stats.Wins, stats.Draws, stats.Forfeits)

	players := make([]engine.PlayerID, 0, len(stats.ByWinner))
	for p := range stats.ByWinner {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i] < players[j] })
	for _, p := range players {
		fmt.Fprintf(out, "Player %d: %d won\n", p, stats.ByWinner[p])
	}
	return nil
}

func describeResult(g storage.GameRecord) string {
	switch g.Status {
	case engine.StatusWin.String():
		return fmt.Sprintf("Player %d won", g.Winner)
	case engine.StatusForfeit.String():
		return fmt.Sprintf("Player %d won (forfeit)", g.Winner)
	case engine.StatusDraw.String():
		return "Draw"
	default:
		return g.Status
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
