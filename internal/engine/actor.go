package engine

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Future is the pending result of a request submitted to an Actor.
type Future[T any] struct {
	done  chan struct{}
	value T
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T) {
	f.value = v
	close(f.done)
}

// Wait blocks until the request has run and returns its result.
func (f *Future[T]) Wait() T {
	<-f.done
	return f.value
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// actorMessage is one queued request.
type actorMessage struct {
	name string
	run  func(*Game)
}

// Actor owns a Game on a single goroutine. Requests are executed one at a time in
// the order they were submitted, each to completion.
type Actor struct {
	game   *Game
	logger *log.Logger

	mu     sync.RWMutex
	closed bool

	msgChan chan actorMessage
	done    chan struct{}
	once    sync.Once
}

// NewActor starts an actor for g. The caller must not touch g directly afterwards.
// A nil logger discards output.
func NewActor(g *Game, logger *log.Logger) *Actor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &Actor{
		game:    g,
		logger:  logger,
		msgChan: make(chan actorMessage, 256),
		done:    make(chan struct{}),
	}
	go a.processMessages()
	return a
}

// processMessages runs queued requests until the channel is closed.
func (a *Actor) processMessages() {
	defer close(a.done)
	for msg := range a.msgChan {
		a.logger.Debug("actor request", "op", msg.name)
		msg.run(a.game)
	}
}

// Close stops accepting requests, waits for queued ones to finish and stops the goroutine.
// Requests submitted after Close resolve immediately to their zero value.
func (a *Actor) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.msgChan)
		a.mu.Unlock()
	})
	<-a.done
}

// Query runs fn on the actor's goroutine and returns its result as a Future.
func Query[T any](a *Actor, name string, fn func(*Game) T) *Future[T] {
	f := newFuture[T]()

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		var zero T
		f.resolve(zero)
		return f
	}

	a.msgChan <- actorMessage{
		name: name,
		run: func(g *Game) {
			var v T
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("actor request panicked", "op", name, "panic", r)
				}
				f.resolve(v)
			}()
			v = fn(g)
		},
	}
	return f
}

// ApplyMoveAsync queues ApplyMove(column).
func (a *Actor) ApplyMoveAsync(column int) *Future[bool] {
	return Query(a, "apply", func(g *Game) bool {
		ok := g.ApplyMove(column)
		if ok && g.Status().IsTerminal() {
			a.logger.Info("game over", "status", g.Status(), "winner", g.WinningPlayerID(), "moves", g.MoveCount())
		}
		return ok
	})
}

// UndoLastMoveAsync queues UndoLastMove.
func (a *Actor) UndoLastMoveAsync() *Future[bool] {
	return Query(a, "undo", (*Game).UndoLastMove)
}

// RedoLastMoveAsync queues RedoLastMove.
func (a *Actor) RedoLastMoveAsync() *Future[bool] {
	return Query(a, "redo", (*Game).RedoLastMove)
}

// ForfeitGameByPlayerAsync queues ForfeitGameByPlayer(id). The result is true once it ran.
func (a *Actor) ForfeitGameByPlayerAsync(id PlayerID) *Future[bool] {
	return Query(a, "forfeit", func(g *Game) bool {
		g.ForfeitGameByPlayer(id)
		a.logger.Info("game forfeited", "player", id, "winner", g.WinningPlayerID())
		return true
	})
}

// ResetGameAsync queues ResetGame. The result is true once it ran.
func (a *Actor) ResetGameAsync() *Future[bool] {
	return Query(a, "reset", func(g *Game) bool {
		g.ResetGame()
		return true
	})
}

// Inspect runs fn against the game on the actor's goroutine.
func (a *Actor) Inspect(fn func(*Game)) *Future[struct{}] {
	return Query(a, "inspect", func(g *Game) struct{} {
		fn(g)
		return struct{}{}
	})
}
