package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-connect4/internal/bitboard"
)

// SnapshotVersion is the encoding version written by Serialize.
const SnapshotVersion = 1

// snapshot is the persisted form of a Game.
type snapshot struct {
	Version         int        `yaml:"version" json:"version"`
	Rows            int        `yaml:"rows" json:"rows"`
	Columns         int        `yaml:"columns" json:"columns"`
	Status          string     `yaml:"status" json:"status"`
	Players         []PlayerID `yaml:"players" json:"players"`
	CurrentPlayer   int        `yaml:"current_player" json:"current_player"`
	Winner          PlayerID   `yaml:"winner" json:"winner"`
	History         []Move     `yaml:"history" json:"history"`
	Redo            []Move     `yaml:"redo" json:"redo"`
	Masks           []uint64   `yaml:"masks" json:"masks"`
	Heights         []int      `yaml:"heights" json:"heights"`
	ElapsedNS       []int64    `yaml:"elapsed_ns" json:"elapsed_ns"`
	SinceLastMoveNS []int64    `yaml:"since_last_move_ns" json:"since_last_move_ns"`
	TotalElapsedNS  int64      `yaml:"total_elapsed_ns" json:"total_elapsed_ns"`
}

// Serialize encodes the full session state as a YAML document.
// Durations are captured relative to the current clock reading.
func (g *Game) Serialize() (string, error) {
	now := g.clock.Now()

	s := snapshot{
		Version:         SnapshotVersion,
		Rows:            g.board.Rows(),
		Columns:         g.board.Columns(),
		Status:          g.status.String(),
		Players:         g.PlayerIDs(),
		CurrentPlayer:   g.current,
		Winner:          g.winner,
		History:         g.MoveHistory(),
		Redo:            g.RedoStack(),
		Masks:           []uint64{g.board.Mask(0), g.board.Mask(1)},
		Heights:         g.board.Heights(),
		ElapsedNS:       make([]int64, len(g.players)),
		SinceLastMoveNS: make([]int64, len(g.players)),
		TotalElapsedNS:  int64(now.Sub(g.startedAt)),
	}
	for i := range g.players {
		s.ElapsedNS[i] = int64(g.elapsed[i])
		s.SinceLastMoveNS[i] = int64(now.Sub(g.lastMoveAt[i]))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&s); err != nil {
		return "", fmt.Errorf("engine: cannot encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("engine: cannot encode snapshot: %w", err)
	}
	return buf.String(), nil
}

// Deserialize restores a Game produced by Serialize. JSON documents with the same
// fields are accepted as well. WithClock sets the clock the restored timers are
// anchored to; the board size always comes from the snapshot.
func Deserialize(data string, opts ...Option) (*Game, error) {
	var s snapshot
	dec := yaml.NewDecoder(strings.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	g := New(WithClock(o.clock), WithBoardSize(s.Rows, s.Columns))

	if err := g.board.Load([bitboard.Players]uint64{s.Masks[0], s.Masks[1]}, s.Heights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := s.checkHistory(); err != nil {
		return nil, err
	}

	status, _ := ParseStatus(s.Status)
	g.status = status
	g.winner = s.Winner
	g.players = append([]PlayerID(nil), s.Players...)
	g.current = s.CurrentPlayer
	g.history = append([]Move(nil), s.History...)
	g.redo = append([]Move(nil), s.Redo...)

	now := g.clock.Now()
	g.startedAt = now.Add(-time.Duration(s.TotalElapsedNS))
	for i := range g.players {
		g.elapsed[i] = time.Duration(s.ElapsedNS[i])
		g.lastMoveAt[i] = now.Add(-time.Duration(s.SinceLastMoveNS[i]))
	}
	return g, nil
}

// validate checks everything that does not need a board.
func (s *snapshot) validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidSnapshot}, args...)...)
	}

	if s.Version != SnapshotVersion {
		return invalid("unsupported version %d", s.Version)
	}
	if !bitboard.Fits(s.Rows, s.Columns) {
		return invalid("%dx%d grid does not fit in a %d-bit mask", s.Rows, s.Columns, bitboard.MaxCells)
	}
	if s.Columns > bitboard.MaxLabeledColumns {
		return invalid("%d columns exceed the %d that move notation can name", s.Columns, bitboard.MaxLabeledColumns)
	}

	status, err := ParseStatus(s.Status)
	if err != nil {
		return invalid("%v", err)
	}

	if len(s.Players) != bitboard.Players {
		return invalid("expected %d players, got %d", bitboard.Players, len(s.Players))
	}
	if s.Players[0] == NoPlayer || s.Players[1] == NoPlayer || s.Players[0] == s.Players[1] {
		return invalid("player ids must be distinct and non-zero")
	}
	if s.CurrentPlayer < 0 || s.CurrentPlayer >= len(s.Players) {
		return invalid("current player index %d out of range", s.CurrentPlayer)
	}

	switch status {
	case StatusWin, StatusForfeit:
		if !s.isPlayer(s.Winner) {
			return invalid("status %s requires a registered winner, got %d", status, s.Winner)
		}
	default:
		if s.Winner != NoPlayer {
			return invalid("status %s cannot have winner %d", status, s.Winner)
		}
	}

	if len(s.Masks) != bitboard.Players {
		return invalid("expected %d masks, got %d", bitboard.Players, len(s.Masks))
	}
	if len(s.ElapsedNS) != len(s.Players) || len(s.SinceLastMoveNS) != len(s.Players) {
		return invalid("timer lists must have one entry per player")
	}
	if s.TotalElapsedNS < 0 {
		return invalid("negative total elapsed time")
	}
	for i := range s.Players {
		if s.ElapsedNS[i] < 0 || s.SinceLastMoveNS[i] < 0 {
			return invalid("negative timer for player %d", s.Players[i])
		}
	}

	for _, list := range [][]Move{s.History, s.Redo} {
		for _, m := range list {
			if !s.isPlayer(m.Player) {
				return invalid("move by unknown player %d", m.Player)
			}
			if m.Column < 0 || m.Column >= s.Columns {
				return invalid("move column %d out of range", m.Column)
			}
		}
	}
	return nil
}

// checkHistory replays the move history on a scratch board and requires it to
// reproduce the stored masks exactly. The replayed position also decides which
// statuses are possible and whose turn it must be.
func (s *snapshot) checkHistory() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidSnapshot}, args...)...)
	}

	scratch := bitboard.New(s.Rows, s.Columns)
	decided := false
	for i, m := range s.History {
		idx := i % len(s.Players)
		if m.Player != s.Players[idx] {
			return invalid("history move %d is out of turn", i)
		}
		if decided {
			return invalid("history move %d follows a winning line", i)
		}
		row := scratch.AvailableRow(m.Column)
		if !scratch.ApplyMove(m.Column, idx) {
			return invalid("history move %d does not fit the board", i)
		}
		decided = scratch.CheckForWin(row, m.Column, idx)
	}
	if scratch.Mask(0) != s.Masks[0] || scratch.Mask(1) != s.Masks[1] {
		return invalid("move history does not match the board masks")
	}

	n := len(s.History)
	ended := decided || scratch.IsFull()

	status, _ := ParseStatus(s.Status)
	switch status {
	case StatusInProgress:
		if ended {
			return invalid("status %s but the last move ended the game", status)
		}
	case StatusWin:
		if !decided {
			return invalid("status %s without a winning line", status)
		}
		if s.Winner != s.History[n-1].Player {
			return invalid("winner %d did not make the winning line", s.Winner)
		}
	case StatusDraw:
		if !scratch.IsFull() || decided {
			return invalid("status %s requires a full board without a line", status)
		}
	}

	// The turn passes after every move except the one that ends the game.
	want := n % len(s.Players)
	if ended {
		want = (n - 1) % len(s.Players)
	}
	if s.CurrentPlayer != want {
		return invalid("current player index %d, expected %d after %d moves", s.CurrentPlayer, want, n)
	}
	return nil
}

func (s *snapshot) isPlayer(id PlayerID) bool {
	for _, p := range s.Players {
		if p == id {
			return true
		}
	}
	return false
}
