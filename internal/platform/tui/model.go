package tui

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-connect4/internal/engine"
	"github.com/vovakirdan/tui-connect4/internal/storage"
)

var errNoStore = errors.New("no storage configured")

// DefaultSaveName is the save slot used when no --load name was given.
const DefaultSaveName = "quicksave"

// gameView is a copy of the session state taken on the actor goroutine.
type gameView struct {
	rows, columns int
	cells         [][]engine.PlayerID // [row][column], row 0 at the bottom
	players       []engine.PlayerID
	current       engine.PlayerID
	status        engine.Status
	winner        engine.PlayerID
	moves         int
	redo          int
	lastMove      engine.Move
	hasLastMove   bool
	elapsed       map[engine.PlayerID]time.Duration
	total         time.Duration
	seq           uint64 // capture order; 0 means the actor was closed
}

func captureView(g *engine.Game) gameView {
	v := gameView{
		rows:    g.Rows(),
		columns: g.Columns(),
		players: g.PlayerIDs(),
		current: g.CurrentPlayerID(),
		status:  g.Status(),
		winner:  g.WinningPlayerID(),
		moves:   g.MoveCount(),
		redo:    len(g.RedoStack()),
		elapsed: make(map[engine.PlayerID]time.Duration),
		total:   g.TotalElapsedTime(),
	}
	v.lastMove, v.hasLastMove = g.LastMove()
	v.cells = make([][]engine.PlayerID, v.rows)
	for r := range v.cells {
		v.cells[r] = make([]engine.PlayerID, v.columns)
		for c := range v.cells[r] {
			v.cells[r][c] = g.Cell(r, c)
		}
	}
	for _, p := range v.players {
		v.elapsed[p] = g.ElapsedTimeForPlayer(p)
	}
	return v
}

// viewClock stamps views in the order the actor captured them.
// It is only touched on the actor goroutine.
type viewClock struct {
	n uint64
}

func (c *viewClock) capture(g *engine.Game) gameView {
	c.n++
	v := captureView(g)
	v.seq = c.n
	return v
}

// stateMsg carries a fresh view after an action ran. record is set when that
// action finished the game.
type stateMsg struct {
	view      gameView
	note      string
	record    *storage.GameRecord
	recordErr error
}

// refreshMsg carries a fresh view for the clock display.
type refreshMsg struct {
	view gameView
}

// recordedMsg reports the outcome of storing a finished game.
type recordedMsg struct {
	id  string
	err error
}

// savedMsg reports the outcome of writing a save slot.
type savedMsg struct {
	name string
	err  error
}

// Model is the Bubble Tea model for one Connect Four session.
// All game access goes through an engine.Actor, so commands never touch the Game directly.
type Model struct {
	actor    *engine.Actor
	views    *viewClock
	store    *storage.Store
	logger   *log.Logger
	keys     KeyMap
	help     help.Model
	view     gameView
	cursor   int
	note     string
	saveName string
	quitting bool
	width    int
	height   int
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithStore records finished games and enables save slots.
func WithStore(store *storage.Store) ModelOption {
	return func(m *Model) {
		m.store = store
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) ModelOption {
	return func(m *Model) {
		m.logger = logger
	}
}

// WithSaveName sets the slot written by the save key.
func WithSaveName(name string) ModelOption {
	return func(m *Model) {
		if name != "" {
			m.saveName = name
		}
	}
}

// NewModel takes ownership of g and wraps it in an actor.
func NewModel(g *engine.Game, opts ...ModelOption) Model {
	m := Model{
		keys:     DefaultKeyMap(),
		help:     help.New(),
		saveName: DefaultSaveName,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.actor = engine.NewActor(g, m.logger)
	m.views = &viewClock{}
	m.view = engine.Query(m.actor, "view", m.views.capture).Wait()
	m.cursor = m.view.columns / 2
	return m
}

// Close stops the session actor.
func (m Model) Close() {
	m.actor.Close()
}

// Init starts the clock refresh loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(1)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.refresh(), tickCmd(1))

	case refreshMsg:
		m.setView(msg.view)
		return m, nil

	case stateMsg:
		if msg.view.seq == 0 {
			return m, nil // actor already closed
		}
		m.note = msg.note
		m.setView(msg.view)
		return m, m.record(msg)

	case recordedMsg:
		if msg.err != nil {
			m.logger.Error("could not record game", "error", msg.err)
			m.note = "could not record game"
			return m, nil
		}
		m.logger.Info("game recorded", "id", msg.id)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.logger.Error("could not save game", "slot", msg.name, "error", msg.err)
			m.note = fmt.Sprintf("save failed: %v", msg.err)
			return m, nil
		}
		m.note = fmt.Sprintf("saved to %q", msg.name)
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Left):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.cursor < m.view.columns-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Drop):
		return m, m.drop(m.cursor)

	case key.Matches(msg, m.keys.Column):
		column := int(msg.String()[0] - '1')
		if column >= m.view.columns {
			return m, nil
		}
		m.cursor = column
		return m, m.drop(column)

	case key.Matches(msg, m.keys.Undo):
		return m, m.act("undo", "nothing to undo", (*engine.Game).UndoLastMove)

	case key.Matches(msg, m.keys.Redo):
		return m, m.act("redo", "nothing to redo", (*engine.Game).RedoLastMove)

	case key.Matches(msg, m.keys.Forfeit):
		if m.view.status.IsTerminal() {
			return m, nil
		}
		return m, m.act("forfeit", "", func(g *engine.Game) bool {
			if g.Status().IsTerminal() {
				return false
			}
			g.ForfeitGameByPlayer(g.CurrentPlayerID())
			return true
		})

	case key.Matches(msg, m.keys.New):
		return m, m.act("reset", "", func(g *engine.Game) bool {
			g.ResetGame()
			return true
		})

	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	}

	return m, nil
}

// setView installs view unless a later capture is already shown.
func (m *Model) setView(view gameView) {
	if view.seq <= m.view.seq {
		return
	}
	m.view = view
	if m.cursor >= m.view.columns {
		m.cursor = m.view.columns - 1
	}
}

func (m Model) drop(column int) tea.Cmd {
	if m.view.status.IsTerminal() {
		return nil
	}
	return m.act("apply", "column is full", func(g *engine.Game) bool {
		return g.ApplyMove(column)
	})
}

// act runs op on the actor and captures the resulting view in the same request.
// rejected is shown when op returns false. When op finishes the game its record
// is built there too, so each ending is stored once however views are delivered.
func (m Model) act(name, rejected string, op func(*engine.Game) bool) tea.Cmd {
	actor, views, recording := m.actor, m.views, m.store != nil
	return func() tea.Msg {
		return engine.Query(actor, name, func(g *engine.Game) stateMsg {
			wasOver := g.Status().IsTerminal()

			var msg stateMsg
			if !op(g) {
				msg.note = rejected
			}
			msg.view = views.capture(g)

			if recording && !wasOver && g.Status().IsTerminal() {
				rec, err := storage.RecordFromGame(g)
				msg.record, msg.recordErr = &rec, err
			}
			return msg
		}).Wait()
	}
}

func (m Model) refresh() tea.Cmd {
	actor, views := m.actor, m.views
	return func() tea.Msg {
		return refreshMsg{view: engine.Query(actor, "view", views.capture).Wait()}
	}
}

// record stores the game an action just finished.
func (m Model) record(msg stateMsg) tea.Cmd {
	if msg.record == nil {
		return nil
	}
	m.logger.Info("game finished", "status", msg.view.status, "winner", msg.view.winner, "moves", msg.view.moves)

	if msg.recordErr != nil {
		err := msg.recordErr
		return func() tea.Msg {
			return recordedMsg{err: err}
		}
	}
	store, rec := m.store, *msg.record
	return func() tea.Msg {
		id, err := store.SaveGame(rec)
		return recordedMsg{id: id, err: err}
	}
}

type snapshotResult struct {
	data string
	err  error
}

func (m Model) save() tea.Cmd {
	if m.store == nil {
		name := m.saveName
		return func() tea.Msg {
			return savedMsg{name: name, err: errNoStore}
		}
	}
	actor, store, name := m.actor, m.store, m.saveName
	return func() tea.Msg {
		res := engine.Query(actor, "snapshot", func(g *engine.Game) snapshotResult {
			data, err := g.Serialize()
			return snapshotResult{data: data, err: err}
		}).Wait()
		if res.err != nil {
			return savedMsg{name: name, err: res.err}
		}
		return savedMsg{name: name, err: store.PutSave(name, res.data)}
	}
}

// IsQuitting returns true if the user asked to leave.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return render(m)
}

// Run starts a local Bubble Tea program for g and blocks until the user quits.
func Run(g *engine.Game, opts ...ModelOption) error {
	model := NewModel(g, opts...)
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	return err
}
