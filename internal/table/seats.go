package table

import (
	"fmt"
	"log"
	"time"

	"cardtable/internal/engine"
	"cardtable/internal/protocol"
	"cardtable/internal/transport"
)

func (t *Table) handleJoin(msg actionMsg) error {
	payload := msg.payload.(joinPayload)

	for seat, slot := range t.seats {
		if slot != nil && slot.ID == payload.playerID {
			slot.Connected = true
			slot.ConnID = payload.connID
			t.cancelEmptyTimer()
			log.Printf("table %s: seat %d reconnected (player %s)", t.ID, seat, payload.playerID)
			t.sendTableJoined(engine.Seat(seat))
			t.broadcastPlayers()
			return nil
		}
	}

	for seat, slot := range t.seats {
		if slot == nil {
			t.seats[seat] = &PlayerSlot{ID: payload.playerID, Name: payload.name, ConnID: payload.connID, Connected: true}
			t.cancelEmptyTimer()
			log.Printf("table %s: seat %d taken by new player %s", t.ID, seat, payload.playerID)
			t.sendTableJoined(engine.Seat(seat))
			t.broadcastPlayers()
			if t.seatCount() == 4 && t.eng == nil {
				log.Printf("table %s: 4 seats filled, starting game", t.ID)
				t.startNewGame()
			}
			return nil
		}
	}

	// Mid-game takeover: full table, some seat disconnected.
	for seat, slot := range t.seats {
		if slot != nil && !slot.Connected {
			t.seats[seat] = &PlayerSlot{ID: payload.playerID, Name: payload.name, ConnID: payload.connID, Connected: true}
			t.cancelEmptyTimer()
			log.Printf("table %s: seat %d taken over by player %s mid-game", t.ID, seat, payload.playerID)
			t.sendTableJoined(engine.Seat(seat))
			t.sendTakeoverReplay(engine.Seat(seat))
			t.broadcastPlayers()
			return nil
		}
	}

	log.Printf("table %s: join from player %s dropped: table full", t.ID, payload.playerID)
	return fmt.Errorf("table: full")
}

func (t *Table) sendTableJoined(seat engine.Seat) {
	t.sendToSeat(seat, protocol.EventTableJoined, protocol.TableJoinedPayload{
		TableID:     t.ID,
		Seat:        int(seat),
		GameType:    string(t.options.GameType),
		EndingScore: t.options.EndingScore,
		Players:     t.playerSummaries(),
	})
}

// sendTakeoverReplay replays the minimum state a seat rebinding mid-game
// needs to resume: its hand, the phase and current player, and any
// revealed contract/bids, rather than resetting the engine.
func (t *Table) sendTakeoverReplay(seat engine.Seat) {
	if t.eng == nil {
		return
	}
	t.sendToSeat(seat, protocol.EventSpectatorUpdate, protocol.SpectatorUpdatePayload{
		GameState: t.seatSnapshot(seat),
	})
}

func (t *Table) handleLeave(msg actionMsg) error {
	for seat, slot := range t.seats {
		if slot != nil && slot.ConnID == msg.connID {
			slot.Connected = false
			log.Printf("table %s: seat %d disconnected (player %s)", t.ID, seat, slot.ID)
			t.broadcastPlayers()
			t.maybeScheduleCleanup()
			return nil
		}
	}
	return fmt.Errorf("table: seat not found")
}

func (t *Table) handleSpectateJoin(msg actionMsg) error {
	payload := msg.payload.(spectatePayload)
	t.spectators[payload.connID] = &SpectatorSlot{ConnID: payload.connID, Name: payload.name}
	t.cancelEmptyTimer()
	_ = t.transport.Send(transport.SpectatorTarget(payload.connID), protocol.EventSpectateJoined, protocol.SpectateJoinedPayload{
		TableID:   t.ID,
		GameType:  string(t.options.GameType),
		Players:   t.playerSummaries(),
		GameState: t.spectatorSnapshot(),
	})
	return nil
}

func (t *Table) handleSpectateLeave(msg actionMsg) error {
	delete(t.spectators, msg.connID)
	t.maybeScheduleCleanup()
	return nil
}

func (t *Table) startNewGame() {
	eng, err := engine.New(t.options.GameType, engine.Config{
		HeartsEndScore:  t.options.EndingScore,
		KingFirstSelect: t.options.InitialSelectorSeat,
		SpadesWinScore:  t.options.WinThreshold,
	})
	if err != nil {
		return
	}
	t.eng = eng
	t.rematchVotes = make(map[engine.Seat]bool)
	t.broadcastStartGame()
	t.armPostDealTimers()
}

func (t *Table) broadcastStartGame() {
	for seat := engine.Seat(0); seat < 4; seat++ {
		payload := protocol.StartGamePayload{
			Hand:          handFor(t.eng, seat),
			Phase:         phaseString(t.eng),
			CurrentPlayer: int(t.eng.CurrentPlayer()),
			GameType:      string(t.eng.GameType()),
		}
		if h, ok := t.eng.(*engine.HeartsEngine); ok {
			payload.PassDirection = passDirectionString(h.PassDirection())
		}
		t.sendToSeat(seat, protocol.EventStartGame, payload)
	}

	switch k := t.eng.(type) {
	case *engine.KingEngine:
		for seat := engine.Seat(0); seat < 4; seat++ {
			t.sendToSeat(seat, protocol.EventContractSelectionStart, protocol.ContractSelectionStartPayload{
				Selector:           int(k.SelectorSeat()),
				AvailableContracts: availableContracts(k),
				GameNumber:         k.GameNumber(),
				PartyNumber:        1,
				Hand:               k.Hand(seat),
			})
		}
	}
	if s, ok := t.eng.(*engine.SpadesEngine); ok {
		for seat := engine.Seat(0); seat < 4; seat++ {
			t.sendToSeat(seat, protocol.EventBiddingStart, protocol.BiddingStartPayload{
				Hand:          s.Hand(seat),
				CurrentBidder: int(s.CurrentBidder()),
				RoundNumber:   s.RoundNumber(),
			})
		}
	}
}

func (t *Table) armPostDealTimers() {
	switch e := t.eng.(type) {
	case *engine.HeartsEngine:
		if e.Phase() == engine.HeartsPassing {
			t.armTimer(&t.passTimer, timerPass, passTimeout)
			t.broadcast(protocol.EventPassTimerStart, protocol.PassTimerStartPayload{
				TimeoutAt: time.Now().Add(passTimeout).UnixMilli(),
			})
		} else {
			t.armTurnTimer()
		}
	case *engine.KingEngine:
		t.armTimer(&t.selectTimer, timerSelect, selectTimeout)
		t.broadcast(protocol.EventSelectTimerStart, protocol.SelectTimerStartPayload{
			TimeoutAt:    time.Now().Add(selectTimeout).UnixMilli(),
			SelectorSeat: int(e.SelectorSeat()),
		})
	case *engine.SpadesEngine:
		t.armTimer(&t.bidTimer, timerBid, bidTimeout)
		t.broadcast(protocol.EventBidTimerStart, protocol.BidTimerStartPayload{
			Player:    int(e.CurrentBidder()),
			TimeoutAt: time.Now().Add(bidTimeout).UnixMilli(),
		})
	}
}
