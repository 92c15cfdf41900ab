package engine

import "cardtable/internal/cards"

// SpadesPhase is a step in Spades' round state machine: dealing -> bidding
// -> playing -> roundEnd -> (dealing | gameEnd).
type SpadesPhase int

const (
	SpadesDealing SpadesPhase = iota
	SpadesBidding
	SpadesPlaying
	SpadesRoundEnd
	SpadesGameEnd
)

const defaultWinThreshold = 300

var spadesSuitOrder = [4]cards.Suit{cards.Spades, cards.Hearts, cards.Diamonds, cards.Clubs}

// SpadesEngine is a pure state machine implementing partnership Spades:
// fixed teams (seat mod 2), nil / blind-nil bidding with its eligibility
// gate, the spades-broken lead restriction, and bag accumulation.
type SpadesEngine struct {
	hands [4][]cards.Card

	roundNumber   int
	phase         SpadesPhase
	bids          [4]Bid
	currentBidder Seat

	currentTrick      []cards.PlayedCard
	lastTrick         []cards.PlayedCard
	currentPlayer     Seat
	spadesBroken      bool
	tricksTakenBySeat [4]int
	teamTricks        [2]int
	bagCount          [2]int

	roundScores      [2]int
	cumulativeScores [2]int
	winThreshold     int
}

// NewSpadesEngine deals round 1 of a fresh game. winThreshold <= 0 falls
// back to the default of 300.
func NewSpadesEngine(winThreshold int) (*SpadesEngine, error) {
	if winThreshold <= 0 {
		winThreshold = defaultWinThreshold
	}
	s := &SpadesEngine{winThreshold: winThreshold}
	if err := s.startRound(1); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SpadesEngine) GameType() GameType { return GameSpades }
func (s *SpadesEngine) Phase() SpadesPhase { return s.phase }
func (s *SpadesEngine) RoundNumber() int   { return s.roundNumber }
func (s *SpadesEngine) CurrentPlayer() Seat { return s.currentPlayer }
func (s *SpadesEngine) CurrentBidder() Seat { return s.currentBidder }
func (s *SpadesEngine) SpadesBroken() bool  { return s.spadesBroken }
func (s *SpadesEngine) BagCount() [2]int       { return s.bagCount }
func (s *SpadesEngine) RoundScores() [2]int    { return s.roundScores }
func (s *SpadesEngine) CumulativeScores() [2]int { return s.cumulativeScores }
func (s *SpadesEngine) Bid(seat Seat) Bid { return s.bids[seat] }
func (s *SpadesEngine) CurrentTrick() []cards.PlayedCard {
	return append([]cards.PlayedCard{}, s.currentTrick...)
}
func (s *SpadesEngine) LastTrick() []cards.PlayedCard {
	return append([]cards.PlayedCard{}, s.lastTrick...)
}
func (s *SpadesEngine) Hand(seat Seat) []cards.Card {
	return append([]cards.Card{}, s.hands[seat]...)
}

func (s *SpadesEngine) IsHandInProgress() bool {
	return s.phase == SpadesBidding || s.phase == SpadesPlaying
}

func (s *SpadesEngine) IsGameOver() bool { return s.phase == SpadesGameEnd }

// Winners returns the winning team indices (0 or 1); both on a tie.
func (s *SpadesEngine) Winners() []int {
	if s.cumulativeScores[0] > s.cumulativeScores[1] {
		return []int{0}
	}
	if s.cumulativeScores[1] > s.cumulativeScores[0] {
		return []int{1}
	}
	return []int{0, 1}
}

func team(seat Seat) int { return int(seat) % 2 }

func (s *SpadesEngine) startRound(round int) error {
	deck, err := cards.NewShuffledDeck()
	if err != nil {
		return err
	}
	hands, err := cards.Deal(deck, spadesSuitOrder)
	if err != nil {
		return err
	}

	s.hands = hands
	s.roundNumber = round
	s.bids = [4]Bid{}
	s.currentBidder = 0
	s.currentTrick = nil
	s.lastTrick = nil
	s.spadesBroken = false
	s.tricksTakenBySeat = [4]int{}
	s.teamTricks = [2]int{}
	s.roundScores = [2]int{}
	s.phase = SpadesBidding
	return nil
}

// StartNextRound deals the next round after a roundEnd.
func (s *SpadesEngine) StartNextRound() error {
	if s.phase != SpadesRoundEnd {
		return newError(ErrPhase, "spades: round is not over")
	}
	return s.startRound(s.roundNumber + 1)
}

// CanBidBlindNil reports whether seat is currently eligible to bid blind
// nil: its team must trail the other team's cumulative score by at least
// 100, and its partner must not have already bid blind nil this round.
func (s *SpadesEngine) CanBidBlindNil(seat Seat) bool {
	myTeam := team(seat)
	otherTeam := 1 - myTeam
	if s.cumulativeScores[otherTeam]-s.cumulativeScores[myTeam] < 100 {
		return false
	}
	partner := Seat((int(seat) + 2) % numSeats)
	if pb, ok := s.bids[partner].(BidBlindNil); ok {
		_ = pb
		return false
	}
	return true
}

// SubmitBid records seat's bid in turn order (0, 1, 2, 3).
func (s *SpadesEngine) SubmitBid(seat Seat, bid Bid) error {
	if s.phase != SpadesBidding {
		return newError(ErrPhase, "spades: not in bidding phase")
	}
	if seat != s.currentBidder {
		return newError(ErrNotYourTurn, "spades: not seat's turn to bid")
	}

	switch b := bid.(type) {
	case BidNumber:
		if b < 0 || b > 13 {
			return newError(ErrInvalidBid, "spades: bid must be between 0 and 13")
		}
	case BidNil:
	case BidBlindNil:
		if !s.CanBidBlindNil(seat) {
			return newError(ErrBlindNilNotAllowed, "spades: not eligible for blind nil")
		}
	default:
		return newError(ErrInvalidBid, "spades: unrecognized bid")
	}

	s.bids[seat] = bid
	if seat == Seat(numSeats-1) {
		s.phase = SpadesPlaying
		s.currentPlayer = Seat((s.roundNumber - 1) % numSeats)
		return nil
	}
	s.currentBidder = nextSeat(seat)
	return nil
}

// LegalCards returns the pure legal-card set for seat as if it were its
// turn.
func (s *SpadesEngine) LegalCards(seat Seat) []cards.Card {
	hand := s.hands[seat]
	if len(s.currentTrick) == 0 {
		return leadRestricted(hand, s.spadesBroken, func(c cards.Card) bool { return c.Suit == cards.Spades })
	}
	pool := followPool(hand, s.currentTrick[0].Card.Suit)
	if len(pool) > 0 {
		return pool
	}
	return append([]cards.Card{}, hand...)
}

// SpadesPlayResult reports what happened after a successful PlayCard.
type SpadesPlayResult struct {
	TrickComplete bool
	TrickWinner   Seat
	RoundComplete bool
	RoundScores   [2]int
	GameComplete  bool
}

// PlayCard validates and applies seat's play of card.
func (s *SpadesEngine) PlayCard(seat Seat, card cards.Card) (*SpadesPlayResult, error) {
	if s.phase != SpadesPlaying {
		return nil, newError(ErrPhase, "spades: not in playing phase")
	}
	if seat != s.currentPlayer {
		return nil, newError(ErrNotYourTurn, "spades: not seat's turn")
	}
	if !cards.Contains(s.hands[seat], card) {
		return nil, newError(ErrIllegalCard, "spades: card not in hand")
	}
	if !cards.Contains(s.LegalCards(seat), card) {
		return nil, newError(ErrIllegalCard, "spades: card is not legal")
	}

	s.hands[seat], _ = cards.Remove(s.hands[seat], card)
	s.currentTrick = append(s.currentTrick, cards.PlayedCard{Seat: int(seat), Card: card})
	if card.Suit == cards.Spades {
		s.spadesBroken = true
	}

	result := &SpadesPlayResult{}
	if len(s.currentTrick) < numSeats {
		s.currentPlayer = nextSeat(seat)
		return result, nil
	}

	trump := cards.Spades
	winner, err := cards.TrickWinner(s.currentTrick, &trump)
	if err != nil {
		return nil, newError(ErrInternal, err.Error())
	}

	s.tricksTakenBySeat[winner]++
	s.teamTricks[team(Seat(winner))]++
	s.lastTrick = s.currentTrick
	s.currentTrick = nil
	s.currentPlayer = Seat(winner)

	result.TrickComplete = true
	result.TrickWinner = Seat(winner)

	if s.teamTricks[0]+s.teamTricks[1] == 13 {
		s.completeRound()
		result.RoundComplete = true
		result.RoundScores = s.roundScores
		result.GameComplete = s.phase == SpadesGameEnd
	}
	return result, nil
}

func nilBonus(bid Bid, tricksTaken int) int {
	switch bid.(type) {
	case BidNil:
		if tricksTaken == 0 {
			return 50
		}
		return -50
	case BidBlindNil:
		if tricksTaken == 0 {
			return 100
		}
		return -100
	default:
		return 0
	}
}

func (s *SpadesEngine) completeRound() {
	var roundScores [2]int
	for t := 0; t < 2; t++ {
		seatA, seatB := Seat(t), Seat(t+2)
		roundScores[t] += nilBonus(s.bids[seatA], s.tricksTakenBySeat[seatA])
		roundScores[t] += nilBonus(s.bids[seatB], s.tricksTakenBySeat[seatB])

		teamBid := s.bids[seatA].Effective() + s.bids[seatB].Effective()
		tricks := s.teamTricks[t]
		if tricks >= teamBid {
			roundScores[t] += 10 * teamBid
			bags := tricks - teamBid
			roundScores[t] += bags
			s.bagCount[t] += bags
		} else {
			roundScores[t] -= 10 * teamBid
		}
	}
	for t := 0; t < 2; t++ {
		for s.bagCount[t] >= 10 {
			roundScores[t] -= 100
			s.bagCount[t] -= 10
		}
	}

	s.roundScores = roundScores
	for t := range s.cumulativeScores {
		s.cumulativeScores[t] += roundScores[t]
	}

	s.phase = SpadesRoundEnd
	if maxOf(s.cumulativeScores[:]) >= s.winThreshold {
		s.phase = SpadesGameEnd
	}
}
