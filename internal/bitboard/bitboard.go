// Package bitboard implements the Connect Four board as two packed occupancy masks.
//
// Cell (row, column) lives at bit row*columns+column of its owner's mask. Row 0 is the
// bottom of the grid, so a column's height is also the row its next piece lands on.
// The package has no external dependencies and performs no locking.
package bitboard

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Standard grid dimensions.
const (
	StandardRows    = 6
	StandardColumns = 7
)

// WinLength is the run length that wins the game.
const WinLength = 4

// Players is the number of occupancy masks a board keeps.
const Players = 2

// MaxCells is the number of cells a single mask can address.
const MaxCells = 64

// ErrCorrupt is returned by Load when masks and heights do not describe a legal board.
var ErrCorrupt = errors.New("bitboard: corrupt board state")

// direction is a unit step through the grid.
type direction struct {
	dRow, dCol int
}

// lines lists the four canonical directions: horizontal, diagonal, anti-diagonal, vertical.
// Their strides are 1, columns+1, columns-1 and columns respectively.
var lines = [4]direction{
	{0, 1},
	{1, 1},
	{1, -1},
	{1, 0},
}

// Board holds per-player occupancy masks and per-column fill heights.
type Board struct {
	rows    int
	columns int
	heights []int
	masks   [Players]uint64
}

// New creates an empty board. It panics if the grid cannot be packed into a 64-bit mask.
func New(rows, columns int) *Board {
	if !Fits(rows, columns) {
		panic(fmt.Sprintf("bitboard: %dx%d grid does not fit in a %d-bit mask", rows, columns, MaxCells))
	}
	return &Board{
		rows:    rows,
		columns: columns,
		heights: make([]int, columns),
	}
}

// NewStandard creates an empty 6x7 board.
func NewStandard() *Board {
	return New(StandardRows, StandardColumns)
}

// Fits reports whether a rows x columns grid is addressable by one mask.
func Fits(rows, columns int) bool {
	return rows > 0 && columns > 0 && rows*columns <= MaxCells
}

// Rows returns the number of rows.
func (b *Board) Rows() int {
	return b.rows
}

// Columns returns the number of columns.
func (b *Board) Columns() int {
	return b.columns
}

// Reset clears both masks and all heights.
func (b *Board) Reset() {
	b.masks = [Players]uint64{}
	for c := range b.heights {
		b.heights[c] = 0
	}
}

// IsFull returns true if every column is filled to the top.
func (b *Board) IsFull() bool {
	for _, h := range b.heights {
		if h < b.rows {
			return false
		}
	}
	return true
}

// IsMoveValid returns true if column is on the board and not yet full.
func (b *Board) IsMoveValid(column int) bool {
	return column >= 0 && column < b.columns && b.heights[column] < b.rows
}

// AvailableRow returns the row the next piece in column would occupy.
// It does not check whether the column is full; callers check IsMoveValid first.
// Columns outside the grid report -1.
func (b *Board) AvailableRow(column int) int {
	if column < 0 || column >= b.columns {
		return -1
	}
	return b.heights[column]
}

// ApplyMove drops a piece for player into column.
// Returns false without touching the board if the move is not legal.
func (b *Board) ApplyMove(column, player int) bool {
	if !b.IsMoveValid(column) || player < 0 || player >= Players {
		return false
	}
	row := b.heights[column]
	b.masks[player] |= b.bit(row, column)
	b.heights[column]++
	return true
}

// UndoMove clears the piece at (row, column) from player's mask and lowers the column.
// No validation is done: row must be the most recent placement in that column.
func (b *Board) UndoMove(column, row, player int) {
	b.masks[player] &^= b.bit(row, column)
	b.heights[column]--
}

// CheckForWin reports whether the piece at (row, column) completes a run of WinLength
// for player. Only lines through that cell are scanned, so it must be called with the
// coordinates of the placement that was just made.
func (b *Board) CheckForWin(row, column, player int) bool {
	if player < 0 || player >= Players || !b.inside(row, column) {
		return false
	}
	for _, d := range lines {
		count := 1 + b.run(row, column, player, d) + b.run(row, column, player, direction{-d.dRow, -d.dCol})
		if count >= WinLength {
			return true
		}
	}
	return false
}

// run counts consecutive pieces of player stepping away from (row, column) along d.
// The walk stops at the first gap, at the board edge, or after WinLength-1 steps.
func (b *Board) run(row, column, player int, d direction) int {
	mask := b.masks[player]
	stride := d.dRow*b.columns + d.dCol
	pos := row*b.columns + column

	count := 0
	r, c := row, column
	for step := 1; step < WinLength; step++ {
		r += d.dRow
		c += d.dCol
		pos += stride
		if !b.inside(r, c) || mask&(uint64(1)<<uint(pos)) == 0 {
			break
		}
		count++
	}
	return count
}

// Mask returns the occupancy mask of player.
func (b *Board) Mask(player int) uint64 {
	if player < 0 || player >= Players {
		return 0
	}
	return b.masks[player]
}

// Heights returns a copy of the per-column fill counts.
func (b *Board) Heights() []int {
	out := make([]int, len(b.heights))
	copy(out, b.heights)
	return out
}

// Owner returns the player occupying (row, column).
func (b *Board) Owner(row, column int) (int, bool) {
	if !b.inside(row, column) {
		return 0, false
	}
	bit := b.bit(row, column)
	for p := range b.masks {
		if b.masks[p]&bit != 0 {
			return p, true
		}
	}
	return 0, false
}

// Count returns the number of occupied cells.
func (b *Board) Count() int {
	return bits.OnesCount64(b.masks[0]) + bits.OnesCount64(b.masks[1])
}

// Load replaces the board contents with the given masks and heights.
// The state is validated first; on error the board is left unchanged.
func (b *Board) Load(masks [Players]uint64, heights []int) error {
	if len(heights) != b.columns {
		return fmt.Errorf("%w: %d heights for %d columns", ErrCorrupt, len(heights), b.columns)
	}
	if masks[0]&masks[1] != 0 {
		return fmt.Errorf("%w: masks overlap", ErrCorrupt)
	}

	grid := b.gridMask()
	occupied := masks[0] | masks[1]
	if occupied&^grid != 0 {
		return fmt.Errorf("%w: bits set outside the %dx%d grid", ErrCorrupt, b.rows, b.columns)
	}

	for c, h := range heights {
		if h < 0 || h > b.rows {
			return fmt.Errorf("%w: column %d height %d out of range", ErrCorrupt, c, h)
		}
		for r := 0; r < b.rows; r++ {
			filled := occupied&b.bit(r, c) != 0
			if filled != (r < h) {
				return fmt.Errorf("%w: column %d does not match height %d", ErrCorrupt, c, h)
			}
		}
	}

	b.masks = masks
	copy(b.heights, heights)
	return nil
}

// String renders the grid top row first, using X for player 0 and O for player 1.
func (b *Board) String() string {
	var sb strings.Builder
	for r := b.rows - 1; r >= 0; r-- {
		for c := 0; c < b.columns; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			p, ok := b.Owner(r, c)
			switch {
			case !ok:
				sb.WriteByte('.')
			case p == 0:
				sb.WriteByte('X')
			default:
				sb.WriteByte('O')
			}
		}
		sb.WriteByte('\n')
	}
	for c := 0; c < b.columns; c++ {
		if c > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(ColumnLabel(c))
	}
	return sb.String()
}

// MaxLabeledColumns is the widest grid single-character move notation can name.
const MaxLabeledColumns = len(columnDigits)

const columnDigits = "0123456789abcdefghijklmnopqrstuvwxyz"

// ColumnLabel returns the single-character notation for a column index.
// Columns beyond base-36 render as "?".
func ColumnLabel(column int) string {
	digits := columnDigits
	if column < 0 || column >= len(digits) {
		return "?"
	}
	return digits[column : column+1]
}

func (b *Board) inside(row, column int) bool {
	return row >= 0 && row < b.rows && column >= 0 && column < b.columns
}

func (b *Board) bit(row, column int) uint64 {
	return uint64(1) << uint(row*b.columns+column)
}

func (b *Board) gridMask() uint64 {
	cells := b.rows * b.columns
	if cells == MaxCells {
		return ^uint64(0)
	}
	return uint64(1)<<uint(cells) - 1
}
