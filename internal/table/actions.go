package table

import (
	"log"
	"time"

	"cardtable/internal/cards"
	"cardtable/internal/engine"
	"cardtable/internal/protocol"
)

// Per-game-type pauses observed between a trick/round/game completing and
// the next broadcast in the sequence, so clients have time to animate the
// prior event before state moves on. The actor goroutine blocks on these
// sleeps, which is also what keeps new actions from being processed mid
// animation — the mailbox just queues behind them.
const (
	trickEndDelay       = 500 * time.Millisecond
	heartsRoundEndDelay = 1500 * time.Millisecond
	kingGameEndDelay    = 1500 * time.Millisecond
	spadesRoundEndDelay = 1500 * time.Millisecond
)

func (t *Table) handleSubmitPass(msg actionMsg) error {
	seat, ok := t.seatByConn(msg.connID)
	if !ok {
		return newTableError("seat not found")
	}
	h, ok := t.eng.(*engine.HeartsEngine)
	if !ok {
		return newTableError("not a hearts table")
	}
	outgoing := msg.payload.([3]cards.Card)
	if err := h.SubmitPass(seat, outgoing[:]); err != nil {
		log.Printf("table %s: submitPass from seat %d dropped: %v", t.ID, seat, err)
		return err
	}
	if h.Phase() == engine.HeartsPlaying {
		t.passTimer.cancel()
		t.armTurnTimer()
	}
	t.broadcastSnapshots()
	return nil
}

func (t *Table) handleSelectContract(msg actionMsg) error {
	seat, ok := t.seatByConn(msg.connID)
	if !ok {
		return newTableError("seat not found")
	}
	contract := msg.payload.(engine.Contract)
	return t.applySelectContract(seat, contract)
}

func (t *Table) applySelectContract(seat engine.Seat, contract engine.Contract) error {
	k, ok := t.eng.(*engine.KingEngine)
	if !ok {
		return newTableError("not a king table")
	}
	if err := k.SelectContract(seat, contract); err != nil {
		log.Printf("table %s: selectContract from seat %d dropped: %v", t.ID, seat, err)
		return err
	}
	t.selectTimer.cancel()
	t.broadcast(protocol.EventContractSelected, protocol.ContractSelectedPayload{
		Contract:   contract,
		GameNumber: k.GameNumber(),
	})
	t.broadcastSnapshots()
	t.armTurnTimer()
	return nil
}

func (t *Table) handleSubmitBid(msg actionMsg) error {
	seat, ok := t.seatByConn(msg.connID)
	if !ok {
		return newTableError("seat not found")
	}
	bid := msg.payload.(engine.Bid)
	return t.applySubmitBid(seat, bid)
}

func (t *Table) applySubmitBid(seat engine.Seat, bid engine.Bid) error {
	s, ok := t.eng.(*engine.SpadesEngine)
	if !ok {
		return newTableError("not a spades table")
	}
	if err := s.SubmitBid(seat, bid); err != nil {
		log.Printf("table %s: submitBid from seat %d dropped: %v", t.ID, seat, err)
		return err
	}

	bids := make([]any, 4)
	for seatIdx := engine.Seat(0); seatIdx < 4; seatIdx++ {
		if b := s.Bid(seatIdx); b != nil {
			bids[seatIdx] = b
		}
	}
	payload := protocol.BidSubmittedPayload{Seat: int(seat), Bid: bid, Bids: bids}
	if s.Phase() == engine.SpadesBidding {
		next := int(s.CurrentBidder())
		payload.NextBidder = &next
	}
	t.broadcast(protocol.EventBidSubmitted, payload)

	if s.Phase() == engine.SpadesPlaying {
		t.bidTimer.cancel()
		t.broadcastSnapshots()
		t.armTurnTimer()
		return nil
	}

	t.armTimer(&t.bidTimer, timerBid, bidTimeout)
	t.broadcast(protocol.EventBidTimerStart, protocol.BidTimerStartPayload{
		Player:    int(s.CurrentBidder()),
		TimeoutAt: time.Now().Add(bidTimeout).UnixMilli(),
	})
	return nil
}

func (t *Table) handlePlayCard(msg actionMsg) error {
	seat, ok := t.seatByConn(msg.connID)
	if !ok {
		return newTableError("seat not found")
	}
	if t.eng == nil {
		log.Printf("table %s: playCard from seat %d dropped: no game in progress", t.ID, seat)
		return newTableError("no game in progress")
	}
	if seat != t.eng.CurrentPlayer() {
		log.Printf("table %s: playCard from seat %d dropped: not their turn", t.ID, seat)
		return newTableError("not your turn")
	}
	card := msg.payload.(cards.Card)
	return t.applyPlayCard(seat, card)
}

func (t *Table) applyPlayCard(seat engine.Seat, card cards.Card) error {
	switch e := t.eng.(type) {
	case *engine.HeartsEngine:
		result, err := e.PlayCard(seat, card)
		if err != nil {
			log.Printf("table %s: playCard from seat %d dropped: %v", t.ID, seat, err)
			return err
		}
		t.onHeartsPlayResult(e, seat, card, result)
	case *engine.KingEngine:
		result, err := e.PlayCard(seat, card)
		if err != nil {
			log.Printf("table %s: playCard from seat %d dropped: %v", t.ID, seat, err)
			return err
		}
		t.onKingPlayResult(e, seat, card, result)
	case *engine.SpadesEngine:
		result, err := e.PlayCard(seat, card)
		if err != nil {
			log.Printf("table %s: playCard from seat %d dropped: %v", t.ID, seat, err)
			return err
		}
		t.onSpadesPlayResult(e, seat, card, result)
	default:
		log.Printf("table %s: playCard from seat %d dropped: no active game", t.ID, seat)
		return newTableError("no active game")
	}
	return nil
}

func (t *Table) cardPlayedPayload(seat engine.Seat, card cards.Card, trick []cards.PlayedCard, trickComplete bool, winner *engine.Seat) protocol.CardPlayedPayload {
	payload := protocol.CardPlayedPayload{
		Seat:          int(seat),
		Card:          card,
		CurrentTrick:  trick,
		TrickComplete: trickComplete,
	}
	if winner != nil {
		w := int(*winner)
		payload.Winner = &w
	}
	return payload
}

func (t *Table) onHeartsPlayResult(h *engine.HeartsEngine, seat engine.Seat, card cards.Card, result *engine.HeartsPlayResult) {
	if !result.TrickComplete {
		t.broadcast(protocol.EventCardPlayed, t.cardPlayedPayload(seat, card, h.CurrentTrick(), false, nil))
		t.broadcastSnapshots()
		t.armTurnTimer()
		return
	}

	winner := result.TrickWinner
	t.broadcast(protocol.EventCardPlayed, t.cardPlayedPayload(seat, card, nil, true, &winner))
	time.Sleep(trickEndDelay)
	t.broadcast(protocol.EventTrickEnd, protocol.TrickEndPayload{
		Winner:    int(winner),
		LastTrick: h.LastTrick(),
	})

	if !result.RoundComplete {
		t.broadcastSnapshots()
		t.armTurnTimer()
		return
	}

	time.Sleep(heartsRoundEndDelay)
	var moonShooter *int
	if result.MoonShooter != nil {
		ms := int(*result.MoonShooter)
		moonShooter = &ms
	}
	t.broadcast(protocol.EventRoundEnd, protocol.RoundEndPayload{
		RoundScores:      result.RoundScores,
		CumulativeScores: h.CumulativeScores(),
		MoonShooter:      moonShooter,
		GameOver:         result.GameComplete,
	})

	if result.GameComplete {
		log.Printf("table %s: hearts game complete", t.ID)
		t.broadcast(protocol.EventGameEnd, protocol.GameEndPayload{
			Winner:      h.Winners(),
			FinalScores: h.CumulativeScores(),
		})
		t.beginRematchVoting()
		return
	}

	if err := h.StartNextRound(); err != nil {
		log.Printf("table %s: hearts StartNextRound failed: %v", t.ID, err)
		return
	}
	log.Printf("table %s: hearts round complete, next round dealt", t.ID)
	t.broadcastSnapshots()
	t.armPostDealTimers()
}

func (t *Table) onKingPlayResult(k *engine.KingEngine, seat engine.Seat, card cards.Card, result *engine.KingPlayResult) {
	if !result.TrickComplete {
		t.broadcast(protocol.EventCardPlayed, t.cardPlayedPayload(seat, card, k.CurrentTrick(), false, nil))
		t.broadcastSnapshots()
		t.armTurnTimer()
		return
	}

	winner := result.TrickWinner
	t.broadcast(protocol.EventCardPlayed, t.cardPlayedPayload(seat, card, nil, true, &winner))
	time.Sleep(trickEndDelay)
	t.broadcast(protocol.EventTrickEnd, protocol.TrickEndPayload{
		Winner:    int(winner),
		LastTrick: k.LastTrick(),
	})

	if !result.GameComplete {
		t.broadcastSnapshots()
		t.armTurnTimer()
		return
	}

	// King's per-deal completion maps onto the wire's generic roundEnd
	// event; the party's completion maps onto gameEnd.
	time.Sleep(kingGameEndDelay)
	t.broadcast(protocol.EventRoundEnd, protocol.RoundEndPayload{
		RoundScores:      result.GameScores,
		CumulativeScores: k.CumulativeScores(),
		GameOver:         result.PartyComplete,
	})

	if result.PartyComplete {
		log.Printf("table %s: king party complete", t.ID)
		t.broadcast(protocol.EventGameEnd, protocol.GameEndPayload{
			Winner:      k.Winners(),
			FinalScores: k.CumulativeScores(),
		})
		t.beginRematchVoting()
		return
	}

	if err := k.StartNextGame(); err != nil {
		log.Printf("table %s: king StartNextGame failed: %v", t.ID, err)
		return
	}
	log.Printf("table %s: king game complete, next deal started", t.ID)
	t.broadcastSnapshots()
	t.armPostDealTimers()
}

func (t *Table) onSpadesPlayResult(s *engine.SpadesEngine, seat engine.Seat, card cards.Card, result *engine.SpadesPlayResult) {
	if !result.TrickComplete {
		t.broadcast(protocol.EventCardPlayed, t.cardPlayedPayload(seat, card, s.CurrentTrick(), false, nil))
		t.broadcastSnapshots()
		t.armTurnTimer()
		return
	}

	winner := result.TrickWinner
	t.broadcast(protocol.EventCardPlayed, t.cardPlayedPayload(seat, card, nil, true, &winner))
	time.Sleep(trickEndDelay)
	t.broadcast(protocol.EventTrickEnd, protocol.TrickEndPayload{
		Winner:    int(winner),
		LastTrick: s.LastTrick(),
	})

	if !result.RoundComplete {
		t.broadcastSnapshots()
		t.armTurnTimer()
		return
	}

	time.Sleep(spadesRoundEndDelay)
	t.broadcast(protocol.EventRoundEnd, protocol.RoundEndPayload{
		RoundScores:      result.RoundScores,
		CumulativeScores: s.CumulativeScores(),
		GameOver:         result.GameComplete,
	})

	if result.GameComplete {
		log.Printf("table %s: spades game complete", t.ID)
		t.broadcast(protocol.EventGameEnd, protocol.GameEndPayload{
			Winner:      s.Winners(),
			FinalScores: s.CumulativeScores(),
		})
		t.beginRematchVoting()
		return
	}

	if err := s.StartNextRound(); err != nil {
		log.Printf("table %s: spades StartNextRound failed: %v", t.ID, err)
		return
	}
	log.Printf("table %s: spades round complete, next round dealt", t.ID)
	t.broadcastSnapshots()
	t.armPostDealTimers()
}

func (t *Table) beginRematchVoting() {
	t.rematchVotes = make(map[engine.Seat]bool)
}

func (t *Table) handleRematchVote(msg actionMsg) error {
	seat, ok := t.seatByConn(msg.connID)
	if !ok {
		return newTableError("seat not found")
	}
	if t.eng == nil || !t.eng.IsGameOver() {
		log.Printf("table %s: rematchVote from seat %d dropped: game is not over", t.ID, seat)
		return newTableError("game is not over")
	}
	vote := msg.payload.(bool)
	t.rematchVotes[seat] = vote

	votes := make(map[string]bool)
	for s, slot := range t.seats {
		if slot == nil {
			continue
		}
		if v, voted := t.rematchVotes[engine.Seat(s)]; voted {
			votes[slot.Name] = v
		}
	}
	t.broadcast(protocol.EventRematchStatus, protocol.RematchStatusPayload{Votes: votes})

	if len(t.rematchVotes) == 4 {
		allYes := true
		for _, v := range t.rematchVotes {
			if !v {
				allYes = false
				break
			}
		}
		if allYes {
			log.Printf("table %s: all seats voted to rematch, starting new game", t.ID)
			t.startNewGame()
		}
	}
	return nil
}
