package table

import (
	"cardtable/internal/cards"
	"cardtable/internal/engine"
	"cardtable/internal/protocol"
	"cardtable/internal/transport"
)

func (t *Table) sendToSeat(seat engine.Seat, eventType protocol.EventType, payload any) {
	_ = t.transport.Send(transport.SeatTarget(int(seat)), eventType, payload)
}

func (t *Table) broadcast(eventType protocol.EventType, payload any) {
	_ = t.transport.Broadcast(eventType, payload)
}

func (t *Table) broadcastExcept(connID string, eventType protocol.EventType, payload any) {
	_ = t.transport.BroadcastExcept(transport.SpectatorTarget(connID), eventType, payload)
}

func (t *Table) broadcastPlayers() {
	t.broadcast(protocol.EventUpdatePlayers, protocol.UpdatePlayersPayload{Players: t.playerSummaries()})
}

func (t *Table) playerSummaries() []protocol.PlayerSummary {
	var out []protocol.PlayerSummary
	for seat, slot := range t.seats {
		if slot == nil {
			continue
		}
		out = append(out, protocol.PlayerSummary{Seat: seat, Name: slot.Name, Connected: slot.Connected})
	}
	return out
}

func handFor(eng engine.Engine, seat engine.Seat) []cards.Card {
	switch e := eng.(type) {
	case *engine.HeartsEngine:
		return e.Hand(seat)
	case *engine.KingEngine:
		return e.Hand(seat)
	case *engine.SpadesEngine:
		return e.Hand(seat)
	}
	return nil
}

func phaseString(eng engine.Engine) string {
	switch e := eng.(type) {
	case *engine.HeartsEngine:
		switch e.Phase() {
		case engine.HeartsDealing:
			return "dealing"
		case engine.HeartsPassing:
			return "passing"
		case engine.HeartsPlaying:
			return "playing"
		case engine.HeartsRoundEnd:
			return "roundEnd"
		case engine.HeartsGameEnd:
			return "gameEnd"
		}
	case *engine.KingEngine:
		switch e.Phase() {
		case engine.KingDealing:
			return "dealing"
		case engine.KingSelecting:
			return "selecting"
		case engine.KingPlaying:
			return "playing"
		case engine.KingGameEnd:
			return "gameEnd"
		case engine.KingPartyEnd:
			return "partyEnd"
		}
	case *engine.SpadesEngine:
		switch e.Phase() {
		case engine.SpadesDealing:
			return "dealing"
		case engine.SpadesBidding:
			return "bidding"
		case engine.SpadesPlaying:
			return "playing"
		case engine.SpadesRoundEnd:
			return "roundEnd"
		case engine.SpadesGameEnd:
			return "gameEnd"
		}
	}
	return "unknown"
}

func passDirectionString(dir engine.PassDirection) string {
	switch dir {
	case engine.PassLeft:
		return "left"
	case engine.PassRight:
		return "right"
	case engine.PassAcross:
		return "across"
	default:
		return "hold"
	}
}

func availableContracts(k *engine.KingEngine) []string {
	var out []string
	seat := k.SelectorSeat()
	usage := k.SelectorUsage(seat)
	if usage.Penalties < 3 {
		for _, name := range allPenalties {
			if contractStillAvailable(k, engine.PenaltyContract{Name: name}) {
				out = append(out, string(name))
			}
		}
	}
	if usage.Trumps < 2 {
		for _, suit := range allTrumpSuits {
			if contractStillAvailable(k, engine.TrumpContract{Suit: suit}) {
				out = append(out, "trump_"+suit.String())
			}
		}
	}
	return out
}

// spectatorSnapshot builds the gameState projection for a spectator, or for a
// seated player other than the one currently asking for their own hand:
// current trick, scores, contract/bids once revealed, and the last
// trick, but never another seat's hidden hand.
func (t *Table) spectatorSnapshot() any {
	if t.eng == nil {
		return nil
	}
	switch e := t.eng.(type) {
	case *engine.HeartsEngine:
		return map[string]any{
			"phase":            phaseString(e),
			"roundNumber":      e.RoundNumber(),
			"passDirection":    passDirectionString(e.PassDirection()),
			"heartsBroken":     e.HeartsBroken(),
			"currentPlayer":    int(e.CurrentPlayer()),
			"currentTrick":     e.CurrentTrick(),
			"lastTrick":        e.LastTrick(),
			"cumulativeScores": e.CumulativeScores(),
		}
	case *engine.KingEngine:
		return map[string]any{
			"phase":            phaseString(e),
			"gameNumber":       e.GameNumber(),
			"selectorSeat":     int(e.SelectorSeat()),
			"contract":         e.Contract(),
			"currentPlayer":    int(e.CurrentPlayer()),
			"currentTrick":     e.CurrentTrick(),
			"lastTrick":        e.LastTrick(),
			"cumulativeScores": e.CumulativeScores(),
		}
	case *engine.SpadesEngine:
		bids := make([]any, 4)
		for seat := engine.Seat(0); seat < 4; seat++ {
			if b := e.Bid(seat); b != nil {
				bids[seat] = b
			}
		}
		return map[string]any{
			"phase":            phaseString(e),
			"roundNumber":      e.RoundNumber(),
			"bids":             bids,
			"currentBidder":    int(e.CurrentBidder()),
			"currentPlayer":    int(e.CurrentPlayer()),
			"currentTrick":     e.CurrentTrick(),
			"lastTrick":        e.LastTrick(),
			"cumulativeScores": e.CumulativeScores(),
		}
	}
	return nil
}

func (t *Table) broadcastSnapshots() {
	if t.eng == nil {
		return
	}
	for seat := engine.Seat(0); seat < 4; seat++ {
		t.sendToSeat(seat, protocol.EventSpectatorUpdate, protocol.SpectatorUpdatePayload{
			GameState: t.seatSnapshot(seat),
		})
	}
	if len(t.spectators) > 0 {
		snapshot := t.spectatorSnapshot()
		for connID := range t.spectators {
			_ = t.transport.Send(transport.SpectatorTarget(connID), protocol.EventSpectatorUpdate, protocol.SpectatorUpdatePayload{
				GameState:      snapshot,
				SpectatorCount: len(t.spectators),
			})
		}
	}
}

// seatSnapshot is the spectator projection plus that seat's own hand.
func (t *Table) seatSnapshot(seat engine.Seat) any {
	base := t.spectatorSnapshot()
	asMap, ok := base.(map[string]any)
	if !ok {
		return base
	}
	asMap["hand"] = handFor(t.eng, seat)
	return asMap
}
