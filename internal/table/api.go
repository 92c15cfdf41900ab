package table

import (
	"cardtable/internal/cards"
	"cardtable/internal/engine"
)

// The methods in this file are the only entry points a transport adapter
// (internal/wsserver) calls; every one of them enqueues onto the actor's
// mailbox and blocks for the result, so callers never touch table state
// directly.

type joinPayload struct {
	playerID string
	name     string
	connID   string
}

type spectatePayload struct {
	connID string
	name   string
}

func (t *Table) Join(playerID, name, connID string) error {
	return t.submit(actionJoin, 0, connID, joinPayload{playerID: playerID, name: name, connID: connID})
}

func (t *Table) Leave(connID string) error {
	return t.submit(actionLeave, 0, connID, nil)
}

func (t *Table) SpectateJoin(connID, name string) error {
	return t.submit(actionSpectateJoin, 0, connID, spectatePayload{connID: connID, name: name})
}

func (t *Table) SpectateLeave(connID string) error {
	return t.submit(actionSpectateLeave, 0, connID, nil)
}

func (t *Table) SubmitPass(connID string, outgoing [3]cards.Card) error {
	return t.submit(actionSubmitPass, 0, connID, outgoing)
}

func (t *Table) SelectContract(connID string, contract engine.Contract) error {
	return t.submit(actionSelectContract, 0, connID, contract)
}

func (t *Table) SubmitBidAction(connID string, bid engine.Bid) error {
	return t.submit(actionSubmitBid, 0, connID, bid)
}

func (t *Table) PlayCardAction(connID string, card cards.Card) error {
	return t.submit(actionPlayCard, 0, connID, card)
}

func (t *Table) VoteRematch(connID string, vote bool) error {
	return t.submit(actionRematchVote, 0, connID, vote)
}

func (t *Table) SendChat(connID, text string) error {
	return t.submit(actionChat, 0, connID, text)
}

func (t *Table) SetTyping(connID string, isTyping bool) error {
	return t.submit(actionTyping, 0, connID, isTyping)
}

func (t *Table) seatByConn(connID string) (engine.Seat, bool) {
	for seat, slot := range t.seats {
		if slot != nil && slot.ConnID == connID && slot.Connected {
			return engine.Seat(seat), true
		}
	}
	return 0, false
}
