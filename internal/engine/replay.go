package engine

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseColumn converts one character of move notation into a column index.
func ParseColumn(r rune) (int, bool) {
	if r > unicode.MaxASCII {
		return 0, false
	}
	n, err := strconv.ParseInt(string(r), 36, 0)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// ReplayMoves applies a move sequence such as "3344" to g, one column per character.
// Whitespace is ignored. It stops at the first move the game rejects and returns the
// number of moves applied so far together with an error wrapping ErrIllegalMove.
func ReplayMoves(g *Game, seq string) (int, error) {
	applied := 0
	for pos, r := range seq {
		if unicode.IsSpace(r) {
			continue
		}
		column, ok := ParseColumn(r)
		if !ok {
			return applied, fmt.Errorf("%w: %q at offset %d is not a column", ErrIllegalMove, r, pos)
		}
		if !g.ApplyMove(column) {
			if g.Status().IsTerminal() {
				return applied, fmt.Errorf("%w: column %d at offset %d after the game ended (%s)", ErrIllegalMove, column, pos, g.Status())
			}
			return applied, fmt.Errorf("%w: column %d at offset %d is not playable", ErrIllegalMove, column, pos)
		}
		applied++
	}
	return applied, nil
}
