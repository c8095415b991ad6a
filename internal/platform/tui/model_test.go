package tui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-connect4/internal/engine"
	"github.com/vovakirdan/tui-connect4/internal/storage"
)

func newTestModel(t *testing.T, opts ...ModelOption) Model {
	t.Helper()
	m := NewModel(engine.New(), opts...)
	t.Cleanup(m.Close)
	return m
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msgs through Update, running every returned command to completion.
func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	queue := append([]tea.Msg(nil), msgs...)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]

		updated, cmd := m.Update(msg)
		next, ok := updated.(Model)
		require.True(t, ok)
		m = next
		queue = append(queue, run(cmd)...)
	}
	return m
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil, tea.QuitMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func TestCursorMovement(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, 3, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight}, runes("l"), runes("l"), runes("l"))
	assert.Equal(t, 6, m.cursor, "cursor stops at the last column")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft}, runes("h"))
	assert.Equal(t, 4, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, engine.PlayerID(1), m.view.cells[0][4])
	assert.Equal(t, engine.PlayerID(2), m.view.current)
}

func TestDigitKeysDropAndRecordWin(t *testing.T) {
	store := newTestStore(t)
	m := newTestModel(t, WithStore(store))

	m = press(t, m, runes("1"), runes("2"), runes("1"), runes("2"), runes("1"), runes("2"), runes("1"))

	assert.Equal(t, engine.StatusWin, m.view.status)
	assert.Equal(t, engine.PlayerID(1), m.view.winner)
	assert.Equal(t, 0, m.cursor)

	games, err := store.RecentGames(10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "0101010", games[0].Moves)
	assert.Equal(t, engine.PlayerID(1), games[0].Winner)

	// Further drops are ignored and nothing is recorded twice.
	m = press(t, m, runes("3"))
	assert.Equal(t, 7, m.view.moves)
	games, err = store.RecentGames(10)
	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestDigitBeyondBoardIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, runes("9"))
	assert.Zero(t, m.view.moves)
}

func TestUndoRedoKeys(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, runes("4"), runes("u"))
	assert.Zero(t, m.view.moves)
	assert.Equal(t, 1, m.view.redo)
	assert.Empty(t, m.note)

	m = press(t, m, runes("u"))
	assert.Equal(t, "nothing to undo", m.note)

	m = press(t, m, runes("r"))
	assert.Equal(t, 1, m.view.moves)
	assert.Equal(t, engine.PlayerID(1), m.view.cells[0][3])

	m = press(t, m, runes("r"))
	assert.Equal(t, "nothing to redo", m.note)
}

func TestFullColumnNote(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 6; i++ {
		m = press(t, m, runes("1"))
	}
	m = press(t, m, runes("1"))
	assert.Equal(t, "column is full", m.note)
	assert.Equal(t, 6, m.view.moves)
}

func TestForfeitAndNewGame(t *testing.T) {
	store := newTestStore(t)
	m := newTestModel(t, WithStore(store))

	m = press(t, m, runes("4"), runes("f"))
	assert.Equal(t, engine.StatusForfeit, m.view.status)
	assert.Equal(t, engine.PlayerID(1), m.view.winner, "player 2 was to move and forfeited")

	m = press(t, m, runes("n"))
	assert.Equal(t, engine.StatusInProgress, m.view.status)
	assert.Zero(t, m.view.moves)

	m = press(t, m, runes("f"))
	assert.Equal(t, engine.PlayerID(2), m.view.winner)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Forfeits)
}

func TestSaveKey(t *testing.T) {
	store := newTestStore(t)
	m := newTestModel(t, WithStore(store), WithSaveName("slot"))

	m = press(t, m, runes("4"), runes("5"), runes("s"))
	assert.Equal(t, `saved to "slot"`, m.note)

	slot, err := store.GetSave("slot")
	require.NoError(t, err)
	g, err := engine.Deserialize(slot.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, "34", g.MoveSequence())
}

func TestSaveWithoutStore(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, runes("s"))
	assert.Contains(t, m.note, "save failed")
}

func TestLoadedFinishedGameIsNotRecordedAgain(t *testing.T) {
	store := newTestStore(t)
	g := engine.New()
	_, err := engine.ReplayMoves(g, "0101010")
	require.NoError(t, err)

	m := NewModel(g, WithStore(store))
	t.Cleanup(m.Close)
	m = press(t, m, refreshMsg{view: m.view})

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Games)
}

func TestStaleFinishedViewAfterNewGame(t *testing.T) {
	store := newTestStore(t)
	m := newTestModel(t, WithStore(store))

	m = press(t, m, runes("1"), runes("2"), runes("1"), runes("2"), runes("1"), runes("2"), runes("1"))
	finished := m.view
	require.Equal(t, engine.StatusWin, finished.status)

	m = press(t, m, runes("n"))
	m = press(t, m, refreshMsg{view: finished})

	assert.Equal(t, engine.StatusInProgress, m.view.status)
	assert.Zero(t, m.view.moves)

	games, err := store.RecentGames(10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "win", games[0].Status)
	assert.Equal(t, "0101010", games[0].Moves)
}

func TestStaleRunningViewAfterWin(t *testing.T) {
	store := newTestStore(t)
	m := newTestModel(t, WithStore(store))

	m = press(t, m, runes("1"), runes("2"), runes("1"), runes("2"), runes("1"), runes("2"))
	running := m.view

	m = press(t, m, runes("1"))
	m = press(t, m, refreshMsg{view: running}, m.refresh()())
	assert.Equal(t, engine.StatusWin, m.view.status)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Games)
}

func TestUndoThenWinAgainRecordsTwice(t *testing.T) {
	store := newTestStore(t)
	m := newTestModel(t, WithStore(store))

	m = press(t, m, runes("1"), runes("2"), runes("1"), runes("2"), runes("1"), runes("2"), runes("1"))
	m = press(t, m, runes("u"), runes("1"))
	assert.Equal(t, engine.StatusWin, m.view.status)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Wins)
}

func TestViewAndQuit(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	assert.Contains(t, view, "Connect Four")
	assert.Contains(t, view, "to move")
	assert.Contains(t, view, "total 00:00")

	m = press(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)

	m = press(t, m, runes("q"))
	assert.True(t, m.IsQuitting())
	assert.Empty(t, m.View())
}

func TestStatusLines(t *testing.T) {
	g := engine.New()
	_, err := engine.ReplayMoves(g, "0101010")
	require.NoError(t, err)

	m := NewModel(g)
	t.Cleanup(m.Close)

	assert.Contains(t, m.View(), "wins after 7 moves")
}
