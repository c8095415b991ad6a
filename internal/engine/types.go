// Package engine implements the Connect Four game session: turn order, lifecycle
// status, undo/redo history and per-player timing on top of a bitboard.
//
// A Game is not safe for concurrent use. Callers either serialize access themselves
// or hand the Game to an Actor, which owns it on a single goroutine.
package engine

import (
	"errors"
	"fmt"
)

// PlayerID is a stable player identifier. Sessions register players 1 and 2.
type PlayerID uint64

// NoPlayer is the sentinel for "no winner".
const NoPlayer PlayerID = 0

// Status is the lifecycle phase of a game.
type Status uint8

const (
	StatusInProgress Status = iota // Moves are accepted
	StatusWin                      // A player completed a line
	StatusDraw                     // Board filled without a line
	StatusForfeit                  // A player gave up
)

// String returns the snapshot name of the status.
func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusWin:
		return "win"
	case StatusDraw:
		return "draw"
	case StatusForfeit:
		return "forfeit"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for Win, Draw and Forfeit.
func (s Status) IsTerminal() bool {
	return s == StatusWin || s == StatusDraw || s == StatusForfeit
}

// ParseStatus converts a snapshot name back into a Status.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "in_progress":
		return StatusInProgress, nil
	case "win":
		return StatusWin, nil
	case "draw":
		return StatusDraw, nil
	case "forfeit":
		return StatusForfeit, nil
	default:
		return 0, fmt.Errorf("engine: unknown status %q", name)
	}
}

// Move is a single applied placement.
type Move struct {
	Player PlayerID `yaml:"player" json:"player"`
	Column int      `yaml:"column" json:"column"`
}

var (
	// ErrInvalidSnapshot is returned when a serialized game cannot be restored.
	ErrInvalidSnapshot = errors.New("engine: invalid snapshot")

	// ErrIllegalMove is returned by ReplayMoves when a move in the sequence is rejected.
	ErrIllegalMove = errors.New("engine: illegal move")
)
