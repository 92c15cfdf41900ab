package engine

import (
	"sort"

	"cardtable/internal/cards"
)

// KingPhase is a step in a single King game's state machine: dealing ->
// selecting -> playing -> gameEnd -> (dealing | partyEnd). partyEnd is the
// terminal state once gameNumber reaches 20; it does not appear in the
// per-game phase set but is needed to make IsGameOver meaningful at the
// party level.
type KingPhase int

const (
	KingDealing KingPhase = iota
	KingSelecting
	KingPlaying
	KingGameEnd
	KingPartyEnd
)

const partySize = 20

var kingSuitOrder = [4]cards.Suit{cards.Spades, cards.Hearts, cards.Diamonds, cards.Clubs}

// SelectorUsage tracks how many penalty and trump contracts a seat has
// selected so far this party, against the per-selector quotas of 3 and 2.
type SelectorUsage struct {
	Penalties int
	Trumps    int
}

// ContractRecord is one entry of a party's selection history.
type ContractRecord struct {
	GameNumber   int
	SelectorSeat Seat
	Contract     Contract
}

// KingEngine is a pure state machine implementing King's rules across a
// 20-game party: selector rotation, per-selector and party-wide contract
// quotas, contract-specific legality and early termination, and the
// per-contract scoring table.
type KingEngine struct {
	hands [4][]cards.Card

	gameNumber   int
	phase        KingPhase
	selectorSeat Seat
	contract     Contract

	currentTrick  []cards.PlayedCard
	lastTrick     []cards.PlayedCard
	currentPlayer Seat
	tricksTaken   [4][]cards.Card
	trickCounts   [4]int
	trickWinners  []Seat
	tricksPlayed  int
	heartsBroken  bool
	trumpBroken   bool

	perSelectorUsage    [4]SelectorUsage
	globalContractUsage map[string]int
	contractHistory     []ContractRecord

	gameScores       [4]int
	cumulativeScores [4]int
}

// NewKingEngine deals game 1 of a fresh party with initialSelector on the
// lead. The source defaults this to seat 0 with a rare manual override;
// this engine makes the same choice explicit at construction.
func NewKingEngine(initialSelector Seat) (*KingEngine, error) {
	k := &KingEngine{globalContractUsage: make(map[string]int, 10)}
	if err := k.startGame(1, initialSelector); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *KingEngine) GameType() GameType { return GameKing }
func (k *KingEngine) Phase() KingPhase   { return k.phase }
func (k *KingEngine) GameNumber() int    { return k.gameNumber }
func (k *KingEngine) SelectorSeat() Seat { return k.selectorSeat }
func (k *KingEngine) Contract() Contract { return k.contract }
func (k *KingEngine) CurrentPlayer() Seat { return k.currentPlayer }
func (k *KingEngine) TricksPlayed() int  { return k.tricksPlayed }
func (k *KingEngine) HeartsBroken() bool { return k.heartsBroken }
func (k *KingEngine) TrumpBroken() bool  { return k.trumpBroken }
func (k *KingEngine) GameScores() [4]int       { return k.gameScores }
func (k *KingEngine) CumulativeScores() [4]int { return k.cumulativeScores }
func (k *KingEngine) SelectorUsage(seat Seat) SelectorUsage { return k.perSelectorUsage[seat] }
func (k *KingEngine) CurrentTrick() []cards.PlayedCard {
	return append([]cards.PlayedCard{}, k.currentTrick...)
}
func (k *KingEngine) LastTrick() []cards.PlayedCard {
	return append([]cards.PlayedCard{}, k.lastTrick...)
}
func (k *KingEngine) Hand(seat Seat) []cards.Card {
	return append([]cards.Card{}, k.hands[seat]...)
}
func (k *KingEngine) ContractHistory() []ContractRecord {
	return append([]ContractRecord{}, k.contractHistory...)
}

func (k *KingEngine) IsHandInProgress() bool {
	return k.phase == KingSelecting || k.phase == KingPlaying
}

func (k *KingEngine) IsGameOver() bool { return k.phase == KingPartyEnd }

// Winners reports seats with a non-negative cumulative score, ordered
// with the strictly higher scores first.
func (k *KingEngine) Winners() []Seat {
	var winners []Seat
	for seat, score := range k.cumulativeScores {
		if score >= 0 {
			winners = append(winners, Seat(seat))
		}
	}
	sort.Slice(winners, func(i, j int) bool {
		return k.cumulativeScores[winners[i]] > k.cumulativeScores[winners[j]]
	})
	return winners
}

func (k *KingEngine) startGame(gameNumber int, selector Seat) error {
	deck, err := cards.NewShuffledDeck()
	if err != nil {
		return err
	}
	hands, err := cards.Deal(deck, kingSuitOrder)
	if err != nil {
		return err
	}

	k.hands = hands
	k.gameNumber = gameNumber
	k.selectorSeat = selector
	k.contract = nil
	k.currentTrick = nil
	k.lastTrick = nil
	k.tricksTaken = [4][]cards.Card{}
	k.trickCounts = [4]int{}
	k.trickWinners = nil
	k.tricksPlayed = 0
	k.heartsBroken = false
	k.trumpBroken = false
	k.gameScores = [4]int{}
	k.phase = KingSelecting
	return nil
}

// StartNextGame deals the next game after a gameEnd, rotating the selector
// counter-clockwise. It errors if the current game is not over.
func (k *KingEngine) StartNextGame() error {
	if k.phase != KingGameEnd {
		return newError(ErrPhase, "king: game is not over")
	}
	return k.startGame(k.gameNumber+1, prevSeat(k.selectorSeat))
}

func validPenaltyName(name PenaltyName) bool {
	switch name {
	case PenaltyEl, PenaltyKupa, PenaltyErkek, PenaltyKiz, PenaltyRifki, PenaltySonIki:
		return true
	default:
		return false
	}
}

func validTrumpSuit(suit cards.Suit) bool {
	switch suit {
	case cards.Clubs, cards.Diamonds, cards.Hearts, cards.Spades:
		return true
	default:
		return false
	}
}

// SelectContract records the selector's chosen contract for this game,
// enforcing the per-selector and party-wide usage quotas.
func (k *KingEngine) SelectContract(seat Seat, contract Contract) error {
	if k.phase != KingSelecting {
		return newError(ErrPhase, "king: not in selecting phase")
	}
	if seat != k.selectorSeat {
		return newError(ErrNotYourTurn, "king: not seat's turn to select")
	}

	switch c := contract.(type) {
	case PenaltyContract:
		if !validPenaltyName(c.Name) {
			return newError(ErrInvalidContract, "king: unknown penalty contract")
		}
		if k.perSelectorUsage[seat].Penalties >= 3 {
			return newError(ErrQuotaExhausted, "king: selector's penalty quota is exhausted")
		}
	case TrumpContract:
		if !validTrumpSuit(c.Suit) {
			return newError(ErrInvalidContract, "king: unknown trump suit")
		}
		if k.perSelectorUsage[seat].Trumps >= 2 {
			return newError(ErrQuotaExhausted, "king: selector's trump quota is exhausted")
		}
	default:
		return newError(ErrInvalidContract, "king: unrecognized contract")
	}

	key := contractUsageKey(contract)
	if k.globalContractUsage[key] >= 2 {
		return newError(ErrQuotaExhausted, "king: contract has reached its party-wide cap")
	}

	k.contract = contract
	switch contract.(type) {
	case PenaltyContract:
		usage := k.perSelectorUsage[seat]
		usage.Penalties++
		k.perSelectorUsage[seat] = usage
	case TrumpContract:
		usage := k.perSelectorUsage[seat]
		usage.Trumps++
		k.perSelectorUsage[seat] = usage
	}
	k.globalContractUsage[key]++
	k.contractHistory = append(k.contractHistory, ContractRecord{
		GameNumber:   k.gameNumber,
		SelectorSeat: seat,
		Contract:     contract,
	})

	k.phase = KingPlaying
	k.currentPlayer = seat
	return nil
}

func (k *KingEngine) trumpSuit() (cards.Suit, bool) {
	if tc, ok := k.contract.(TrumpContract); ok {
		return tc.Suit, true
	}
	return 0, false
}

// LegalCards returns the pure legal-card set for seat as if it were its
// turn, dispatching to the current contract's legality rules.
func (k *KingEngine) LegalCards(seat Seat) []cards.Card {
	hand := k.hands[seat]
	leading := len(k.currentTrick) == 0

	switch c := k.contract.(type) {
	case TrumpContract:
		return k.legalTrump(hand, leading, c.Suit)
	case PenaltyContract:
		switch c.Name {
		case PenaltyKupa, PenaltyRifki:
			return k.legalHeartsRestricted(hand, leading, c.Name)
		case PenaltyErkek:
			return k.legalForcedRank(hand, leading, func(r cards.Rank) bool {
				return r == cards.King || r == cards.Jack
			})
		case PenaltyKiz:
			return k.legalForcedRank(hand, leading, func(r cards.Rank) bool {
				return r == cards.Queen
			})
		default: // el, sonIki
			return k.legalFollowSuitOnly(hand, leading)
		}
	}
	return append([]cards.Card{}, hand...)
}

func leadRestricted(hand []cards.Card, broken bool, restricted func(cards.Card) bool) []cards.Card {
	if broken {
		return append([]cards.Card{}, hand...)
	}
	var candidates []cards.Card
	for _, c := range hand {
		if !restricted(c) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, hand...)
	}
	return candidates
}

func followPool(hand []cards.Card, ledSuit cards.Suit) []cards.Card {
	var pool []cards.Card
	for _, c := range hand {
		if c.Suit == ledSuit {
			pool = append(pool, c)
		}
	}
	return pool
}

func (k *KingEngine) legalFollowSuitOnly(hand []cards.Card, leading bool) []cards.Card {
	if leading {
		return append([]cards.Card{}, hand...)
	}
	pool := followPool(hand, k.currentTrick[0].Card.Suit)
	if len(pool) > 0 {
		return pool
	}
	return append([]cards.Card{}, hand...)
}

func (k *KingEngine) legalTrump(hand []cards.Card, leading bool, trump cards.Suit) []cards.Card {
	if leading {
		return leadRestricted(hand, k.trumpBroken, func(c cards.Card) bool { return c.Suit == trump })
	}
	pool := followPool(hand, k.currentTrick[0].Card.Suit)
	if len(pool) > 0 {
		return pool
	}
	return append([]cards.Card{}, hand...)
}

func (k *KingEngine) legalHeartsRestricted(hand []cards.Card, leading bool, name PenaltyName) []cards.Card {
	if leading {
		return leadRestricted(hand, k.heartsBroken, func(c cards.Card) bool { return c.Suit == cards.Hearts })
	}
	pool := followPool(hand, k.currentTrick[0].Card.Suit)
	if len(pool) > 0 {
		return pool
	}

	if name == PenaltyRifki {
		kingHearts := cards.New(cards.King, cards.Hearts)
		if cards.Contains(hand, kingHearts) {
			return []cards.Card{kingHearts}
		}
	}
	var hearts []cards.Card
	for _, c := range hand {
		if c.Suit == cards.Hearts {
			hearts = append(hearts, c)
		}
	}
	if len(hearts) > 0 {
		return hearts
	}
	return append([]cards.Card{}, hand...)
}

// legalForcedRank implements erkek (K/J) and kiz (Q) legality: when
// following suit, a held card of the forced rank that can no longer win
// the trick must be played; when void, any held card of the forced rank
// must be played.
func (k *KingEngine) legalForcedRank(hand []cards.Card, leading bool, isForced func(cards.Rank) bool) []cards.Card {
	if leading {
		return append([]cards.Card{}, hand...)
	}
	ledSuit := k.currentTrick[0].Card.Suit
	pool := followPool(hand, ledSuit)
	if len(pool) > 0 {
		highest := highestInSuit(k.currentTrick, ledSuit)
		var forced []cards.Card
		for _, c := range pool {
			if isForced(c.Rank) && c.Rank < highest {
				forced = append(forced, c)
			}
		}
		if len(forced) > 0 {
			return forced
		}
		return pool
	}

	var forced []cards.Card
	for _, c := range hand {
		if isForced(c.Rank) {
			forced = append(forced, c)
		}
	}
	if len(forced) > 0 {
		return forced
	}
	return append([]cards.Card{}, hand...)
}

func highestInSuit(trick []cards.PlayedCard, suit cards.Suit) cards.Rank {
	highest := cards.Rank(-1)
	for _, pc := range trick {
		if pc.Card.Suit == suit && pc.Card.Rank > highest {
			highest = pc.Card.Rank
		}
	}
	return highest
}

// KingPlayResult reports what happened after a successful PlayCard.
type KingPlayResult struct {
	TrickComplete bool
	TrickWinner   Seat
	GameComplete  bool
	GameScores    [4]int
	PartyComplete bool
}

// PlayCard validates and applies seat's play of card under the currently
// selected contract.
func (k *KingEngine) PlayCard(seat Seat, card cards.Card) (*KingPlayResult, error) {
	if k.phase != KingPlaying {
		return nil, newError(ErrPhase, "king: not in playing phase")
	}
	if seat != k.currentPlayer {
		return nil, newError(ErrNotYourTurn, "king: not seat's turn")
	}
	if !cards.Contains(k.hands[seat], card) {
		return nil, newError(ErrIllegalCard, "king: card not in hand")
	}
	if !cards.Contains(k.LegalCards(seat), card) {
		return nil, newError(ErrIllegalCard, "king: card is not legal")
	}

	k.hands[seat], _ = cards.Remove(k.hands[seat], card)
	k.currentTrick = append(k.currentTrick, cards.PlayedCard{Seat: int(seat), Card: card})

	if card.Suit == cards.Hearts {
		k.heartsBroken = true
	}
	if trump, ok := k.trumpSuit(); ok && card.Suit == trump {
		k.trumpBroken = true
	}

	result := &KingPlayResult{}
	if len(k.currentTrick) < numSeats {
		k.currentPlayer = prevSeat(seat)
		return result, nil
	}

	var trumpPtr *cards.Suit
	if trump, ok := k.trumpSuit(); ok {
		trumpPtr = &trump
	}
	winner, err := cards.TrickWinner(k.currentTrick, trumpPtr)
	if err != nil {
		return nil, newError(ErrInternal, err.Error())
	}

	for _, pc := range k.currentTrick {
		k.tricksTaken[winner] = append(k.tricksTaken[winner], pc.Card)
	}
	k.trickCounts[winner]++
	k.trickWinners = append(k.trickWinners, Seat(winner))
	k.lastTrick = k.currentTrick
	k.currentTrick = nil
	k.tricksPlayed++
	k.currentPlayer = Seat(winner)

	result.TrickComplete = true
	result.TrickWinner = Seat(winner)

	if k.tricksPlayed == 13 || k.earlyTerminationReached() {
		k.completeGame()
		result.GameComplete = true
		result.GameScores = k.gameScores
		result.PartyComplete = k.phase == KingPartyEnd
	}
	return result, nil
}

func (k *KingEngine) earlyTerminationReached() bool {
	pc, ok := k.contract.(PenaltyContract)
	if !ok {
		return false
	}
	switch pc.Name {
	case PenaltyRifki:
		kingHearts := cards.New(cards.King, cards.Hearts)
		for _, taken := range k.tricksTaken {
			if cards.Contains(taken, kingHearts) {
				return true
			}
		}
		return false
	case PenaltyKupa:
		return !k.remaining(func(c cards.Card) bool { return c.Suit == cards.Hearts })
	case PenaltyErkek:
		return !k.remaining(func(c cards.Card) bool { return c.Rank == cards.King || c.Rank == cards.Jack })
	case PenaltyKiz:
		return !k.remaining(func(c cards.Card) bool { return c.Rank == cards.Queen })
	default:
		return false
	}
}

// remaining reports whether any card still in any seat's hand matches pred.
func (k *KingEngine) remaining(pred func(cards.Card) bool) bool {
	for _, hand := range k.hands {
		for _, c := range hand {
			if pred(c) {
				return true
			}
		}
	}
	return false
}

func countMatching(captured []cards.Card, pred func(cards.Card) bool) int {
	n := 0
	for _, c := range captured {
		if pred(c) {
			n++
		}
	}
	return n
}

// completeGame scores the just-finished game per the active contract and
// advances the phase to gameEnd, or partyEnd once gameNumber reaches 20.
func (k *KingEngine) completeGame() {
	var scores [4]int

	switch c := k.contract.(type) {
	case TrumpContract:
		for seat := range scores {
			scores[seat] = 50 * k.trickCounts[seat]
		}
	case PenaltyContract:
		switch c.Name {
		case PenaltyEl:
			for seat := range scores {
				scores[seat] = -50 * k.trickCounts[seat]
			}
		case PenaltyKupa:
			for seat := range scores {
				scores[seat] = -30 * countMatching(k.tricksTaken[seat], func(c cards.Card) bool { return c.Suit == cards.Hearts })
			}
		case PenaltyErkek:
			for seat := range scores {
				scores[seat] = -60 * countMatching(k.tricksTaken[seat], func(c cards.Card) bool {
					return c.Rank == cards.King || c.Rank == cards.Jack
				})
			}
		case PenaltyKiz:
			for seat := range scores {
				scores[seat] = -100 * countMatching(k.tricksTaken[seat], func(c cards.Card) bool { return c.Rank == cards.Queen })
			}
		case PenaltyRifki:
			kingHearts := cards.New(cards.King, cards.Hearts)
			for seat := range scores {
				if cards.Contains(k.tricksTaken[seat], kingHearts) {
					scores[seat] = -320
				}
			}
		case PenaltySonIki:
			n := len(k.trickWinners)
			for i := n - 2; i < n; i++ {
				if i >= 0 {
					scores[k.trickWinners[i]] -= 180
				}
			}
		}
	}

	k.gameScores = scores
	for seat := range k.cumulativeScores {
		k.cumulativeScores[seat] += scores[seat]
	}

	k.phase = KingGameEnd
	if k.gameNumber >= partySize {
		k.phase = KingPartyEnd
	}
}
