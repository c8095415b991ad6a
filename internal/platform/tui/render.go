package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-connect4/internal/engine"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("4")).Padding(0, 1)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noteStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("208"))
	statusStyle = lipgloss.NewStyle().Bold(true)
)

// playerStyles colours pieces by turn order.
var playerStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
}

const (
	pieceRune = "●"
	emptyRune = "·"
	arrowRune = "▼"
)

// render draws the full session screen.
func render(m Model) string {
	v := m.view

	sections := []string{
		titleStyle.Render("Connect Four"),
		renderCursor(v, m.cursor),
		boardStyle.Render(renderGrid(v)),
		renderStatus(v),
		renderClocks(v),
	}
	if m.note != "" {
		sections = append(sections, noteStyle.Render(m.note))
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderCursor draws the drop arrow above the selected column.
func renderCursor(v gameView, cursor int) string {
	cells := make([]string, v.columns)
	for c := range cells {
		cells[c] = " "
		if c == cursor && !v.status.IsTerminal() {
			cells[c] = playerStyle(v, v.current).Render(arrowRune)
		}
	}
	// Border and padding shift the grid two cells right.
	return "  " + strings.Join(cells, " ")
}

// renderGrid draws the pieces top row first, followed by column numbers.
func renderGrid(v gameView) string {
	var sb strings.Builder
	for r := v.rows - 1; r >= 0; r-- {
		for c := 0; c < v.columns; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			owner := v.cells[r][c]
			switch {
			case owner == engine.NoPlayer:
				sb.WriteString(emptyStyle.Render(emptyRune))
			case v.hasLastMove && v.lastMove.Column == c && topRow(v, c) == r:
				sb.WriteString(cursorStyle.Inherit(playerStyle(v, owner)).Underline(true).Render(pieceRune))
			default:
				sb.WriteString(playerStyle(v, owner).Render(pieceRune))
			}
		}
		sb.WriteByte('\n')
	}
	for c := 0; c < v.columns; c++ {
		if c > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%d", c+1)))
	}
	return sb.String()
}

// renderStatus describes whose turn it is or how the game ended.
func renderStatus(v gameView) string {
	switch v.status {
	case engine.StatusWin:
		return statusStyle.Render(fmt.Sprintf("%s wins after %d moves!", playerName(v, v.winner), v.moves))
	case engine.StatusDraw:
		return statusStyle.Render("Draw: the board is full.")
	case engine.StatusForfeit:
		return statusStyle.Render(fmt.Sprintf("%s wins by forfeit.", playerName(v, v.winner)))
	default:
		line := fmt.Sprintf("%s to move", playerName(v, v.current))
		if v.redo > 0 {
			line += fmt.Sprintf("  (%d to redo)", v.redo)
		}
		return statusStyle.Render(line)
	}
}

// renderClocks shows total and per-player think time.
func renderClocks(v gameView) string {
	parts := []string{"total " + formatDuration(v.total)}
	for _, p := range v.players {
		parts = append(parts, fmt.Sprintf("%s %s", playerName(v, p), formatDuration(v.elapsed[p])))
	}
	return labelStyle.Render(strings.Join(parts, "  |  "))
}

func playerName(v gameView, id engine.PlayerID) string {
	return playerStyle(v, id).Render(fmt.Sprintf("Player %d", id))
}

func playerStyle(v gameView, id engine.PlayerID) lipgloss.Style {
	for i, p := range v.players {
		if p == id && i < len(playerStyles) {
			return playerStyles[i]
		}
	}
	return lipgloss.NewStyle()
}

// topRow returns the highest occupied row of column c, or -1.
func topRow(v gameView, c int) int {
	for r := v.rows - 1; r >= 0; r-- {
		if v.cells[r][c] != engine.NoPlayer {
			return r
		}
	}
	return -1
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
