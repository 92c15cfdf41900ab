package cards

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// NewShuffledDeck builds a standard 52-card deck and returns a uniformly
// random permutation of it, Fisher-Yates over crypto/rand.Reader rather
// than a seeded math/rand generator.
func NewShuffledDeck() ([]Card, error) {
	deck := make([]Card, 0, 52)
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			deck = append(deck, New(rank, suit))
		}
	}
	if err := shuffle(deck); err != nil {
		return nil, err
	}
	return deck, nil
}

func shuffle(deck []Card) error {
	for i := len(deck) - 1; i > 0; i-- {
		j, err := cryptoRandInt(i + 1)
		if err != nil {
			return fmt.Errorf("shuffle deck: %w", err)
		}
		deck[i], deck[j] = deck[j], deck[i]
	}
	return nil
}

func cryptoRandInt(n int) (int, error) {
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Deal distributes a 52-card deck round-robin by index (i mod 4) into four
// 13-card hands. SuitOrder is applied to sort each hand canonically:
// primary key is the position of a card's suit in suitOrder, secondary key
// is rank ascending.
func Deal(deck []Card, suitOrder [4]Suit) ([4][]Card, error) {
	var hands [4][]Card
	if len(deck) != 52 {
		return hands, fmt.Errorf("deal: deck must have 52 cards, got %d", len(deck))
	}
	for i, c := range deck {
		seat := i % 4
		hands[seat] = append(hands[seat], c)
	}
	for i := range hands {
		SortHand(hands[i], suitOrder)
	}
	return hands, nil
}

// SortHand sorts hand in place: primary key is suit rank within suitOrder,
// secondary key is card rank ascending.
func SortHand(hand []Card, suitOrder [4]Suit) {
	suitRank := make(map[Suit]int, 4)
	for i, s := range suitOrder {
		suitRank[s] = i
	}
	sort.SliceStable(hand, func(i, j int) bool {
		si, sj := suitRank[hand[i].Suit], suitRank[hand[j].Suit]
		if si != sj {
			return si < sj
		}
		return hand[i].Rank < hand[j].Rank
	})
}
