// Package table implements the Table Controller: one actor goroutine per
// table that owns an engine.Engine, serializes every mutation through an
// inbound mailbox of client actions and timer firings, and broadcasts
// per-participant projections after each engine call returns. One actor
// loop drains the mailbox regardless of which of the three trick-taking
// variants is running underneath it.
package table

import (
	"fmt"
	"sync"
	"time"

	"cardtable/internal/engine"
	"cardtable/internal/protocol"
	"cardtable/internal/transport"
)

// PlayerSlot is one seated player's connection-independent record.
type PlayerSlot struct {
	ID        string
	Name      string
	ConnID    string
	Connected bool
}

// SpectatorSlot is one watching connection.
type SpectatorSlot struct {
	ConnID string
	Name   string
}

// Options carries the table's creation-time configuration, independent of
// which variant it runs.
type Options struct {
	GameType            engine.GameType
	EndingScore         int // Hearts
	WinThreshold        int // Spades
	InitialSelectorSeat engine.Seat // King
}

type actionKind int

const (
	actionJoin actionKind = iota
	actionLeave
	actionSpectateJoin
	actionSpectateLeave
	actionSubmitPass
	actionSelectContract
	actionSubmitBid
	actionPlayCard
	actionRematchVote
	actionChat
	actionTyping
	actionTimerFired
	actionInfo
	actionSeatConn
)

type actionMsg struct {
	kind    actionKind
	seat    engine.Seat
	connID  string
	payload any
	result  chan error
}

// Table is a single table's actor: one goroutine drains actions and timer
// firings off a buffered channel and mutates state and the engine under it
// exclusively. Every external query (Info, the api.go methods) round-trips
// through that same mailbox instead of taking a lock, so nothing in this
// package ever reads seats/spectators/eng from outside the actor goroutine.
type Table struct {
	ID      string
	options Options

	seats      [4]*PlayerSlot
	spectators map[string]*SpectatorSlot
	eng        engine.Engine

	transport transport.Transport
	onIdle    func(tableID string, idle bool)

	actions  chan actionMsg
	stopChan chan struct{}
	wg       sync.WaitGroup

	turnTimer   timerHandle
	passTimer   timerHandle
	selectTimer timerHandle
	bidTimer    timerHandle

	rematchVotes map[engine.Seat]bool
	typingUntil  map[string]time.Time

	emptyTimer *time.Timer
}

// New constructs a table with no seats filled and no engine started yet
// — the engine is created once 4 seats are filled, by the join handler.
func New(id string, opts Options, tr transport.Transport, onIdle func(tableID string, idle bool)) *Table {
	return &Table{
		ID:           id,
		options:      opts,
		spectators:   make(map[string]*SpectatorSlot),
		transport:    tr,
		onIdle:       onIdle,
		actions:      make(chan actionMsg, 32),
		stopChan:     make(chan struct{}),
		rematchVotes: make(map[engine.Seat]bool),
		typingUntil:  make(map[string]time.Time),
	}
}

// Start launches the table's actor goroutine.
func (t *Table) Start() {
	t.wg.Add(1)
	go t.loop()
}

// Stop shuts the actor down and cancels every outstanding timer.
func (t *Table) Stop() {
	close(t.stopChan)
	t.wg.Wait()
	t.turnTimer.cancel()
	t.passTimer.cancel()
	t.selectTimer.cancel()
	t.bidTimer.cancel()
	if t.emptyTimer != nil {
		t.emptyTimer.Stop()
	}
}

func (t *Table) loop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.stopChan:
			return
		case msg := <-t.actions:
			err := t.handle(msg)
			if msg.result != nil {
				msg.result <- err
			}
		}
	}
}

// submit enqueues an action and waits for the actor to process it.
func (t *Table) submit(kind actionKind, seat engine.Seat, connID string, payload any) error {
	result := make(chan error, 1)
	select {
	case t.actions <- actionMsg{kind: kind, seat: seat, connID: connID, payload: payload, result: result}:
	case <-t.stopChan:
		return fmt.Errorf("table: stopped")
	}
	select {
	case err := <-result:
		return err
	case <-t.stopChan:
		return fmt.Errorf("table: stopped")
	}
}

func (t *Table) handle(msg actionMsg) error {
	switch msg.kind {
	case actionJoin:
		return t.handleJoin(msg)
	case actionLeave:
		return t.handleLeave(msg)
	case actionSpectateJoin:
		return t.handleSpectateJoin(msg)
	case actionSpectateLeave:
		return t.handleSpectateLeave(msg)
	case actionSubmitPass:
		return t.handleSubmitPass(msg)
	case actionSelectContract:
		return t.handleSelectContract(msg)
	case actionSubmitBid:
		return t.handleSubmitBid(msg)
	case actionPlayCard:
		return t.handlePlayCard(msg)
	case actionRematchVote:
		return t.handleRematchVote(msg)
	case actionChat:
		return t.handleChat(msg)
	case actionTyping:
		return t.handleTyping(msg)
	case actionTimerFired:
		return t.handleTimerFired(msg)
	case actionInfo:
		return t.handleInfo(msg)
	case actionSeatConn:
		return t.handleSeatConn(msg)
	default:
		return fmt.Errorf("table: unknown action kind %d", msg.kind)
	}
}

func (t *Table) seatCount() int {
	n := 0
	for _, s := range t.seats {
		if s != nil {
			n++
		}
	}
	return n
}

func (t *Table) connectedCount() int {
	n := 0
	for _, s := range t.seats {
		if s != nil && s.Connected {
			n++
		}
	}
	return n
}

func (t *Table) broadcastError(target transport.Target, message string) {
	_ = t.transport.Send(target, protocol.EventError, protocol.ErrorPayload{Message: message})
}
