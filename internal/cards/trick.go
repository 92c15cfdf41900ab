package cards

import "fmt"

// PlayedCard pairs a card with the seat that played it within a trick.
type PlayedCard struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// TrickWinner resolves a completed trick of exactly four plays. If trump is
// non-nil and any card in the trick matches that suit, the highest-ranked
// trump wins; otherwise the highest-ranked card of the suit led wins. Cards
// of any other suit are inert. Returns the winning seat.
func TrickWinner(trick []PlayedCard, trump *Suit) (int, error) {
	if len(trick) != 4 {
		return 0, fmt.Errorf("trick winner: trick must have exactly 4 plays, got %d", len(trick))
	}

	ledSuit := trick[0].Card.Suit

	if trump != nil {
		bestTrump := -1
		for i, pc := range trick {
			if pc.Card.Suit != *trump {
				continue
			}
			if bestTrump == -1 || pc.Card.Rank > trick[bestTrump].Card.Rank {
				bestTrump = i
			}
		}
		if bestTrump != -1 {
			return trick[bestTrump].Seat, nil
		}
	}

	best := 0
	for i, pc := range trick {
		if pc.Card.Suit != ledSuit {
			continue
		}
		if pc.Card.Rank > trick[best].Card.Rank {
			best = i
		}
	}
	return trick[best].Seat, nil
}
