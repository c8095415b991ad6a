package engine

import (
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/tui-connect4/internal/bitboard"
)

// Game is a two-player session over one bitboard.
type Game struct {
	board *bitboard.Board
	clock clock.Clock

	status  Status
	winner  PlayerID
	players []PlayerID
	current int // index into players

	history []Move
	redo    []Move

	startedAt  time.Time
	elapsed    []time.Duration
	lastMoveAt []time.Time
}

// Option configures a Game.
type Option func(*options)

type options struct {
	clock   clock.Clock
	rows    int
	columns int
}

// WithClock sets the time source used for elapsed-time accounting.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithBoardSize overrides the 6x7 grid. The grid must fit in a 64-bit mask.
func WithBoardSize(rows, columns int) Option {
	return func(o *options) {
		o.rows = rows
		o.columns = columns
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:   clock.New(),
		rows:    bitboard.StandardRows,
		columns: bitboard.StandardColumns,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a game in progress with players 1 and 2, player 1 to move.
func New(opts ...Option) *Game {
	o := buildOptions(opts)

	g := &Game{
		board:   bitboard.New(o.rows, o.columns),
		clock:   o.clock,
		players: []PlayerID{1, 2},
	}
	g.elapsed = make([]time.Duration, len(g.players))
	g.lastMoveAt = make([]time.Time, len(g.players))
	g.ResetGame()
	return g
}

// ResetGame clears the board, history and timers and hands the turn back to player 1.
func (g *Game) ResetGame() {
	g.board.Reset()
	g.history = nil
	g.redo = nil
	g.status = StatusInProgress
	g.winner = NoPlayer
	g.current = 0

	g.startedAt = g.clock.Now()
	for i := range g.players {
		g.elapsed[i] = 0
		g.lastMoveAt[i] = g.startedAt
	}
}

// ApplyMove drops the current player's piece into column.
// Returns false without changing anything if the game is over or the column is not playable.
// A successful move clears the redo stack, including a move replayed by RedoLastMove.
func (g *Game) ApplyMove(column int) bool {
	if g.status != StatusInProgress {
		return false
	}
	if !g.board.IsMoveValid(column) {
		return false
	}

	row := g.board.AvailableRow(column)
	if !g.board.ApplyMove(column, g.current) {
		return false
	}

	g.updateElapsedTime()
	g.history = append(g.history, Move{Player: g.players[g.current], Column: column})
	g.redo = nil

	g.updateGameState(row, column)
	if g.status == StatusInProgress {
		g.switchTurn()
	}
	return true
}

// UndoLastMove takes back the most recent move and gives the turn to its player.
// Any terminal status is cleared, even if the undone move did not decide the game.
func (g *Game) UndoLastMove() bool {
	n := len(g.history)
	if n == 0 {
		return false
	}

	last := g.history[n-1]
	idx := g.playerIndex(last.Player)
	if idx < 0 {
		return false
	}

	// The most recent move is always the top piece of its column.
	row := g.board.AvailableRow(last.Column) - 1
	g.current = idx
	g.board.UndoMove(last.Column, row, idx)

	g.history = g.history[:n-1]
	g.redo = append(g.redo, last)
	g.status = StatusInProgress
	g.winner = NoPlayer
	return true
}

// RedoLastMove replays the most recently undone move through ApplyMove, recomputing
// win and draw. The replayed move clears whatever else was on the redo stack.
//
// Returns false if nothing is left to redo or the game is no longer in progress.
// A rejected redo leaves the move on the stack so it can be redone after an undo.
func (g *Game) RedoLastMove() bool {
	n := len(g.redo)
	if n == 0 || g.status != StatusInProgress {
		return false
	}

	move := g.redo[n-1]
	idx := g.playerIndex(move.Player)
	if idx < 0 {
		return false
	}

	g.redo = g.redo[:n-1]
	g.current = idx
	if !g.ApplyMove(move.Column) {
		g.redo = append(g.redo, move)
		return false
	}
	return true
}

// ForfeitGameByPlayer ends the game in favour of the first other registered player.
// If no other player is registered the winner stays NoPlayer.
func (g *Game) ForfeitGameByPlayer(id PlayerID) {
	g.status = StatusForfeit
	g.winner = NoPlayer
	for _, p := range g.players {
		if p != id {
			g.winner = p
			break
		}
	}
}

// CurrentPlayerID returns the player whose turn it is.
func (g *Game) CurrentPlayerID() PlayerID {
	return g.players[g.current]
}

// Status returns the lifecycle status.
func (g *Game) Status() Status {
	return g.status
}

// WinningPlayerID returns the winner, or NoPlayer.
func (g *Game) WinningPlayerID() PlayerID {
	return g.winner
}

// IsDrawn reports whether the game ended in a draw.
func (g *Game) IsDrawn() bool {
	return g.status == StatusDraw
}

// TotalElapsedTime returns wall-clock time since the game was created or reset.
func (g *Game) TotalElapsedTime() time.Duration {
	return g.clock.Since(g.startedAt)
}

// ElapsedTimeForPlayer returns the think time accumulated by id's moves.
// Unknown ids report zero.
func (g *Game) ElapsedTimeForPlayer(id PlayerID) time.Duration {
	idx := g.playerIndex(id)
	if idx < 0 {
		return 0
	}
	return g.elapsed[idx]
}

// PlayerIDs returns the registered players in turn order.
func (g *Game) PlayerIDs() []PlayerID {
	out := make([]PlayerID, len(g.players))
	copy(out, g.players)
	return out
}

// MoveHistory returns a copy of the applied moves, oldest first.
func (g *Game) MoveHistory() []Move {
	out := make([]Move, len(g.history))
	copy(out, g.history)
	return out
}

// RedoStack returns a copy of the undone moves; the last element is redone first.
func (g *Game) RedoStack() []Move {
	out := make([]Move, len(g.redo))
	copy(out, g.redo)
	return out
}

// MoveCount returns the number of applied moves.
func (g *Game) MoveCount() int {
	return len(g.history)
}

// LastMove returns the most recent move.
func (g *Game) LastMove() (Move, bool) {
	if len(g.history) == 0 {
		return Move{}, false
	}
	return g.history[len(g.history)-1], true
}

// Rows returns the grid height.
func (g *Game) Rows() int {
	return g.board.Rows()
}

// Columns returns the grid width.
func (g *Game) Columns() int {
	return g.board.Columns()
}

// IsMoveValid reports whether column can take a piece. It ignores the game status.
func (g *Game) IsMoveValid(column int) bool {
	return g.board.IsMoveValid(column)
}

// AvailableRow returns the row the next piece in column would land on.
func (g *Game) AvailableRow(column int) int {
	return g.board.AvailableRow(column)
}

// Cell returns the player occupying (row, column), or NoPlayer.
func (g *Game) Cell(row, column int) PlayerID {
	idx, ok := g.board.Owner(row, column)
	if !ok {
		return NoPlayer
	}
	return g.players[idx]
}

// Board returns an ASCII rendering of the grid, top row first.
func (g *Game) Board() string {
	return g.board.String()
}

// MoveSequence returns the applied columns in single-character notation.
func (g *Game) MoveSequence() string {
	var sb strings.Builder
	for _, m := range g.history {
		sb.WriteString(bitboard.ColumnLabel(m.Column))
	}
	return sb.String()
}

func (g *Game) updateGameState(row, column int) {
	if g.board.CheckForWin(row, column, g.current) {
		g.status = StatusWin
		g.winner = g.players[g.current]
	} else if g.board.IsFull() {
		g.status = StatusDraw
		g.winner = NoPlayer
	}
}

func (g *Game) switchTurn() {
	g.current = (g.current + 1) % len(g.players)
}

// updateElapsedTime charges the mover with the time since their previous move.
func (g *Game) updateElapsedTime() {
	now := g.clock.Now()
	g.elapsed[g.current] += now.Sub(g.lastMoveAt[g.current])
	g.lastMoveAt[g.current] = now
}

func (g *Game) playerIndex(id PlayerID) int {
	for i, p := range g.players {
		if p == id {
			return i
		}
	}
	return -1
}
