package engine

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, opts ...Option) (*Game, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	opts = append([]Option{WithClock(mock)}, opts...)
	return New(opts...), mock
}

func play(t *testing.T, g *Game, columns ...int) {
	t.Helper()
	for i, c := range columns {
		require.Truef(t, g.ApplyMove(c), "move %d (column %d) rejected", i, c)
	}
}

func TestNewGame(t *testing.T) {
	g, _ := newTestGame(t)

	assert.Equal(t, StatusInProgress, g.Status())
	assert.Equal(t, PlayerID(1), g.CurrentPlayerID())
	assert.Equal(t, NoPlayer, g.WinningPlayerID())
	assert.Equal(t, []PlayerID{1, 2}, g.PlayerIDs())
	assert.Equal(t, 6, g.Rows())
	assert.Equal(t, 7, g.Columns())
	assert.Zero(t, g.MoveCount())
	assert.Empty(t, g.RedoStack())
	assert.False(t, g.IsDrawn())

	_, ok := g.LastMove()
	assert.False(t, ok)
}

func TestApplyMoveAlternatesTurns(t *testing.T) {
	g, _ := newTestGame(t)

	play(t, g, 3)
	assert.Equal(t, PlayerID(2), g.CurrentPlayerID())
	assert.Equal(t, PlayerID(1), g.Cell(0, 3))
	assert.Equal(t, 1, g.AvailableRow(3))

	play(t, g, 3)
	assert.Equal(t, PlayerID(1), g.CurrentPlayerID())
	assert.Equal(t, PlayerID(2), g.Cell(1, 3))

	last, ok := g.LastMove()
	require.True(t, ok)
	assert.Equal(t, Move{Player: 2, Column: 3}, last)
	assert.Equal(t, []Move{{Player: 1, Column: 3}, {Player: 2, Column: 3}}, g.MoveHistory())
}

func TestApplyMoveRejectsInvalidColumns(t *testing.T) {
	g, _ := newTestGame(t)

	for _, c := range []int{-1, 7, 100} {
		assert.Falsef(t, g.ApplyMove(c), "column %d", c)
	}
	assert.Zero(t, g.MoveCount())
	assert.Equal(t, PlayerID(1), g.CurrentPlayerID())
}

func TestFullColumnIsRejected(t *testing.T) {
	g, _ := newTestGame(t)

	play(t, g, 0, 0, 0, 0, 0, 0)
	assert.False(t, g.IsMoveValid(0))
	assert.False(t, g.ApplyMove(0))
	assert.Equal(t, 6, g.MoveCount())
	assert.Equal(t, StatusInProgress, g.Status())
}

func TestVerticalWin(t *testing.T) {
	g, _ := newTestGame(t)

	play(t, g, 0, 1, 0, 1, 0, 1, 0)

	assert.Equal(t, StatusWin, g.Status())
	assert.Equal(t, PlayerID(1), g.WinningPlayerID())
	assert.Equal(t, PlayerID(1), g.CurrentPlayerID(), "turn does not advance after a winning move")
	for row := 0; row < 4; row++ {
		assert.Equal(t, PlayerID(1), g.Cell(row, 0))
	}
	assert.False(t, g.ApplyMove(2), "moves after a win are rejected")
}

func TestWinDetection(t *testing.T) {
	tests := []struct {
		name   string
		moves  []int
		winner PlayerID
	}{
		{"horizontal", []int{0, 0, 1, 1, 2, 2, 3}, 1},
		{"diagonal", []int{0, 1, 1, 2, 2, 3, 2, 3, 3, 6, 3}, 1},
		{"anti-diagonal", []int{3, 2, 2, 1, 1, 0, 1, 0, 0, 6, 0}, 1},
		{"second player vertical", []int{0, 1, 2, 1, 2, 1, 2, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGame(t)
			play(t, g, tt.moves...)

			assert.Equal(t, StatusWin, g.Status())
			assert.Equal(t, tt.winner, g.WinningPlayerID())
		})
	}
}

func TestDraw(t *testing.T) {
	g, _ := newTestGame(t, WithBoardSize(3, 3))

	play(t, g, 0, 1, 2, 0, 1, 2, 0, 1, 2)

	assert.Equal(t, StatusDraw, g.Status())
	assert.True(t, g.IsDrawn())
	assert.Equal(t, NoPlayer, g.WinningPlayerID())
	assert.False(t, g.ApplyMove(0))
}

func TestUndoRestoresPreviousState(t *testing.T) {
	g, _ := newTestGame(t)

	play(t, g, 4)
	require.True(t, g.UndoLastMove())

	assert.Empty(t, g.MoveHistory())
	assert.Equal(t, StatusInProgress, g.Status())
	assert.Equal(t, 0, g.AvailableRow(4))
	assert.Equal(t, PlayerID(1), g.CurrentPlayerID())
	assert.Equal(t, []Move{{Player: 1, Column: 4}}, g.RedoStack())
}

func TestUndoEmptyHistory(t *testing.T) {
	g, _ := newTestGame(t)
	assert.False(t, g.UndoLastMove())
}

func TestUndoWinningMove(t *testing.T) {
	g, _ := newTestGame(t)
	play(t, g, 0, 1, 0, 1, 0, 1, 0)
	require.Equal(t, StatusWin, g.Status())

	require.True(t, g.UndoLastMove())

	assert.Equal(t, StatusInProgress, g.Status())
	assert.Equal(t, NoPlayer, g.WinningPlayerID())
	assert.Equal(t, PlayerID(1), g.CurrentPlayerID())
	assert.Equal(t, NoPlayer, g.Cell(3, 0))
	assert.Equal(t, PlayerID(2), g.Cell(2, 1))
	assert.Equal(t, 6, g.MoveCount())
}

func TestUndoResetsStatusAfterForfeit(t *testing.T) {
	g, _ := newTestGame(t)
	play(t, g, 0, 1)
	g.ForfeitGameByPlayer(1)

	require.True(t, g.UndoLastMove())
	assert.Equal(t, StatusInProgress, g.Status())
	assert.Equal(t, NoPlayer, g.WinningPlayerID())
	assert.Equal(t, PlayerID(2), g.CurrentPlayerID())
}

func TestRedoRestoresMove(t *testing.T) {
	g, _ := newTestGame(t)

	play(t, g, 2, 5)
	board := g.Board()
	current := g.CurrentPlayerID()

	require.True(t, g.UndoLastMove())
	require.True(t, g.RedoLastMove())

	assert.Equal(t, board, g.Board())
	assert.Equal(t, current, g.CurrentPlayerID())
	assert.Equal(t, []Move{{Player: 1, Column: 2}, {Player: 2, Column: 5}}, g.MoveHistory())
	assert.Empty(t, g.RedoStack())
	assert.False(t, g.RedoLastMove())
}

func TestRedoClearsRemainingChain(t *testing.T) {
	g, _ := newTestGame(t)
	play(t, g, 0, 1)

	require.True(t, g.UndoLastMove())
	require.True(t, g.UndoLastMove())
	require.Len(t, g.RedoStack(), 2)

	require.True(t, g.RedoLastMove())
	assert.Empty(t, g.RedoStack())
	assert.False(t, g.RedoLastMove())

	assert.Equal(t, "0", g.MoveSequence())
	assert.Equal(t, PlayerID(2), g.CurrentPlayerID())
}

func TestFreshMoveClearsRedo(t *testing.T) {
	g, _ := newTestGame(t)
	play(t, g, 0, 1)
	require.True(t, g.UndoLastMove())

	play(t, g, 5)
	assert.Empty(t, g.RedoStack())
	assert.False(t, g.RedoLastMove())
}

func TestRedoRecomputesWin(t *testing.T) {
	g, _ := newTestGame(t)
	play(t, g, 0, 1, 0, 1, 0, 1, 0)
	require.True(t, g.UndoLastMove())

	require.True(t, g.RedoLastMove())
	assert.Equal(t, StatusWin, g.Status())
	assert.Equal(t, PlayerID(1), g.WinningPlayerID())
}

func TestRedoRejectedWhenGameOver(t *testing.T) {
	g, _ := newTestGame(t)
	play(t, g, 0, 1)
	require.True(t, g.UndoLastMove())
	g.ForfeitGameByPlayer(2)

	assert.False(t, g.RedoLastMove())
	assert.Len(t, g.RedoStack(), 1, "rejected redo keeps the move")
}

func TestForfeit(t *testing.T) {
	tests := []struct {
		name   string
		loser  PlayerID
		winner PlayerID
	}{
		{"player one forfeits", 1, 2},
		{"player two forfeits", 2, 1},
		{"unknown id", 99, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGame(t)
			g.ForfeitGameByPlayer(tt.loser)

			assert.Equal(t, StatusForfeit, g.Status())
			assert.Equal(t, tt.winner, g.WinningPlayerID())
			assert.False(t, g.ApplyMove(0))
		})
	}
}

func TestResetGame(t *testing.T) {
	g, mock := newTestGame(t)
	mock.Add(3 * time.Second)
	play(t, g, 0, 1, 0, 1, 0, 1, 0)
	require.True(t, g.UndoLastMove())

	g.ResetGame()

	assert.Equal(t, StatusInProgress, g.Status())
	assert.Equal(t, PlayerID(1), g.CurrentPlayerID())
	assert.Zero(t, g.MoveCount())
	assert.Empty(t, g.RedoStack())
	assert.Zero(t, g.TotalElapsedTime())
	assert.Zero(t, g.ElapsedTimeForPlayer(1))
	for c := 0; c < g.Columns(); c++ {
		assert.Equal(t, 0, g.AvailableRow(c))
	}
}

func TestElapsedTime(t *testing.T) {
	g, mock := newTestGame(t)

	mock.Add(2 * time.Second)
	play(t, g, 3)
	mock.Add(5 * time.Second)
	play(t, g, 4)
	mock.Add(1 * time.Second)
	play(t, g, 3)

	assert.Equal(t, 8*time.Second, g.ElapsedTimeForPlayer(1))
	assert.Equal(t, 7*time.Second, g.ElapsedTimeForPlayer(2))
	assert.Equal(t, 8*time.Second, g.TotalElapsedTime())
	assert.Zero(t, g.ElapsedTimeForPlayer(99))

	mock.Add(4 * time.Second)
	assert.Equal(t, 12*time.Second, g.TotalElapsedTime())
	assert.Equal(t, 8*time.Second, g.ElapsedTimeForPlayer(1), "per-player time only moves on that player's moves")
}

func TestBoardRendering(t *testing.T) {
	g, _ := newTestGame(t, WithBoardSize(2, 3))
	play(t, g, 0, 1, 1)

	expected := ". X .\n" +
		"X O .\n" +
		"0 1 2"
	assert.Equal(t, expected, g.Board())
	assert.Equal(t, "011", g.MoveSequence())
}

func TestStatusString(t *testing.T) {
	for _, s := range []Status{StatusInProgress, StatusWin, StatusDraw, StatusForfeit} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	assert.Equal(t, "unknown", Status(42).String())

	_, err := ParseStatus("paused")
	assert.Error(t, err)

	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusDraw.IsTerminal())
}
