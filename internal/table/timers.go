package table

import (
	"math/rand"
	"time"

	"cardtable/internal/cards"
	"cardtable/internal/engine"
	"cardtable/internal/protocol"
)

const (
	turnTimeout   = 30 * time.Second
	turnWarnAt    = 10 * time.Second
	passTimeout   = 30 * time.Second
	selectTimeout = 45 * time.Second
	bidTimeout    = 30 * time.Second
)

type timerKind int

const (
	timerTurn timerKind = iota
	timerTurnWarning
	timerPass
	timerSelect
	timerBid
	timerEmptyTable
	timerTypingExpire
)

// timerHandle is a single outstanding timer slot with a generation counter:
// arming bumps the generation and cancels the underlying time.Timer, so a
// firing whose generation doesn't match the current one is stale and is
// ignored by the actor loop, instead of needing a separate cancellation
// channel per timer.
type timerHandle struct {
	timer *time.Timer
	gen   int
}

func (h *timerHandle) cancel() {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.gen++
}

type timerFiredPayload struct {
	kind timerKind
	gen  int
}

func (t *Table) armTimer(handle *timerHandle, kind timerKind, d time.Duration) {
	if handle.timer != nil {
		handle.timer.Stop()
	}
	handle.gen++
	gen := handle.gen
	handle.timer = time.AfterFunc(d, func() {
		_ = t.submit(actionTimerFired, 0, "", timerFiredPayload{kind: kind, gen: gen})
	})
}

func (t *Table) cancelAllTimers() {
	t.turnTimer.cancel()
	t.passTimer.cancel()
	t.selectTimer.cancel()
	t.bidTimer.cancel()
}

func (t *Table) armTurnTimer() {
	t.armTimer(&t.turnTimer, timerTurn, turnTimeout)
	deadline := time.Now().Add(turnTimeout)
	seat := t.eng.CurrentPlayer()
	t.broadcast(protocol.EventTurnStart, protocol.TurnStartPayload{
		Player:    int(seat),
		TimeoutAt: deadline.UnixMilli(),
	})
	gen := t.turnTimer.gen
	time.AfterFunc(turnTimeout-turnWarnAt, func() {
		_ = t.submit(actionTimerFired, 0, "", timerFiredPayload{kind: timerTurnWarning, gen: gen})
	})
}

func (t *Table) handleTimerFired(msg actionMsg) error {
	payload := msg.payload.(timerFiredPayload)

	switch payload.kind {
	case timerTurnWarning:
		if payload.gen == t.turnTimer.gen {
			t.broadcast(protocol.EventTimerWarning, protocol.TimerWarningPayload{})
		}
		return nil
	case timerTurn:
		if payload.gen != t.turnTimer.gen {
			return nil
		}
		return t.autoPlay()
	case timerPass:
		if payload.gen != t.passTimer.gen {
			return nil
		}
		return t.autoPass()
	case timerSelect:
		if payload.gen != t.selectTimer.gen {
			return nil
		}
		return t.autoSelectContract()
	case timerBid:
		if payload.gen != t.bidTimer.gen {
			return nil
		}
		return t.autoBid()
	case timerEmptyTable:
		if t.connectedCount() > 0 || len(t.spectators) > 0 {
			return nil
		}
		if t.onIdle != nil {
			t.onIdle(t.ID, true)
		}
		return nil
	case timerTypingExpire:
		t.broadcastTyping("")
		return nil
	}
	return nil
}

// autoPlay plays the lowest legal card for the seat on the clock.
func (t *Table) autoPlay() error {
	seat := t.eng.CurrentPlayer()
	legal := legalCardsFor(t.eng, seat)
	if len(legal) == 0 {
		return nil
	}
	card := lowestCard(legal)
	t.broadcast(protocol.EventAutoPlay, protocol.AutoPlayPayload{Card: card})
	return t.applyPlayCard(seat, card)
}

func lowestCard(cardsIn []cards.Card) cards.Card {
	lowest := cardsIn[0]
	for _, c := range cardsIn[1:] {
		if c.Rank < lowest.Rank || (c.Rank == lowest.Rank && c.Suit < lowest.Suit) {
			lowest = c
		}
	}
	return lowest
}

func legalCardsFor(eng engine.Engine, seat engine.Seat) []cards.Card {
	switch e := eng.(type) {
	case *engine.HeartsEngine:
		return e.LegalCards(seat)
	case *engine.KingEngine:
		return e.LegalCards(seat)
	case *engine.SpadesEngine:
		return e.LegalCards(seat)
	}
	return nil
}

// autoPass selects 3 random cards for every seat that has not yet
// submitted a pass.
func (t *Table) autoPass() error {
	h, ok := t.eng.(*engine.HeartsEngine)
	if !ok {
		return nil
	}
	submitted := h.PendingPassSeats()
	for seat := engine.Seat(0); seat < 4; seat++ {
		if submitted[seat] {
			continue
		}
		hand := h.Hand(seat)
		shuffled := append([]cards.Card{}, hand...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		chosen := shuffled[:3]
		if err := h.SubmitPass(seat, chosen); err != nil {
			continue
		}
		t.broadcast(protocol.EventAutoPassSubmitted, protocol.AutoPassSubmittedPayload{Cards: chosen})
	}
	if h.Phase() == engine.HeartsPlaying {
		t.passTimer.cancel()
		t.armTurnTimer()
	}
	t.broadcastSnapshots()
	return nil
}

// autoSelectContract picks a random available penalty if the selector
// still has a penalty slot, else a random available trump suit.
func (t *Table) autoSelectContract() error {
	k, ok := t.eng.(*engine.KingEngine)
	if !ok {
		return nil
	}
	seat := k.SelectorSeat()
	usage := k.SelectorUsage(seat)

	var contract engine.Contract
	if usage.Penalties < 3 {
		contract = randomAvailablePenalty(k, seat)
	}
	if contract == nil {
		contract = randomAvailableTrump(k, seat)
	}
	if contract == nil {
		return nil
	}
	return t.applySelectContract(seat, contract)
}

var allPenalties = []engine.PenaltyName{
	engine.PenaltyEl, engine.PenaltyKupa, engine.PenaltyErkek,
	engine.PenaltyKiz, engine.PenaltyRifki, engine.PenaltySonIki,
}

var allTrumpSuits = []cards.Suit{cards.Clubs, cards.Diamonds, cards.Hearts, cards.Spades}

func randomAvailablePenalty(k *engine.KingEngine, seat engine.Seat) engine.Contract {
	var available []engine.PenaltyName
	for _, name := range allPenalties {
		c := engine.PenaltyContract{Name: name}
		if k.SelectorUsage(seat).Penalties < 3 && contractStillAvailable(k, c) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return nil
	}
	return engine.PenaltyContract{Name: available[rand.Intn(len(available))]}
}

func randomAvailableTrump(k *engine.KingEngine, seat engine.Seat) engine.Contract {
	if k.SelectorUsage(seat).Trumps >= 2 {
		return nil
	}
	var available []cards.Suit
	for _, suit := range allTrumpSuits {
		c := engine.TrumpContract{Suit: suit}
		if contractStillAvailable(k, c) {
			available = append(available, suit)
		}
	}
	if len(available) == 0 {
		return nil
	}
	return engine.TrumpContract{Suit: available[rand.Intn(len(available))]}
}

// contractStillAvailable re-derives the global usage cap from the
// party's recorded history instead of reaching into KingEngine's private
// counters.
func contractStillAvailable(k *engine.KingEngine, c engine.Contract) bool {
	used := 0
	for _, record := range k.ContractHistory() {
		if sameContract(record.Contract, c) {
			used++
		}
	}
	return used < 2
}

func sameContract(a, b engine.Contract) bool {
	switch av := a.(type) {
	case engine.PenaltyContract:
		bv, ok := b.(engine.PenaltyContract)
		return ok && av.Name == bv.Name
	case engine.TrumpContract:
		bv, ok := b.(engine.TrumpContract)
		return ok && av.Suit == bv.Suit
	}
	return false
}

// autoBid bids a flat 2 for the seat on the clock; nil/blind-nil are
// never auto-selected.
func (t *Table) autoBid() error {
	s, ok := t.eng.(*engine.SpadesEngine)
	if !ok {
		return nil
	}
	seat := s.CurrentBidder()
	return t.applySubmitBid(seat, engine.BidNumber(2))
}
