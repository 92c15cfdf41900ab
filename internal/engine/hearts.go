package engine

import "cardtable/internal/cards"

// HeartsPhase is a step in the Hearts round state machine: dealing ->
// {passing if direction != hold, else playing} -> playing -> roundEnd ->
// (dealing | gameEnd).
type HeartsPhase int

const (
	HeartsDealing HeartsPhase = iota
	HeartsPassing
	HeartsPlaying
	HeartsRoundEnd
	HeartsGameEnd
)

// PassDirection is the Hearts pass-phase direction, cycling every 4 rounds.
type PassDirection int

const (
	PassLeft PassDirection = iota
	PassRight
	PassAcross
	PassHold
)

var heartsSuitOrder = [4]cards.Suit{cards.Spades, cards.Hearts, cards.Diamonds, cards.Clubs}

var queenOfSpades = cards.New(cards.Queen, cards.Spades)
var twoOfClubs = cards.New(cards.Two, cards.Clubs)

const defaultEndingScore = 50

// HeartsEngine is a pure state machine implementing Hearts' rules: the pass
// phase, first-trick leads, the hearts-broken gate, and the moon-shot
// disambiguation. It never touches the network or a clock — the table
// controller drives it and is the only thing that broadcasts.
type HeartsEngine struct {
	hands         [4][]cards.Card
	roundNumber   int
	phase         HeartsPhase
	passDirection PassDirection
	pendingPasses map[Seat][]cards.Card

	currentTrick  []cards.PlayedCard
	currentPlayer Seat
	heartsBroken  bool
	tricksTaken   [4][]cards.Card
	tricksPlayed  int
	lastTrick     []cards.PlayedCard

	roundScores      [4]int
	cumulativeScores [4]int
	endingScore      int
}

// NewHeartsEngine deals round 1 of a fresh Hearts game. endingScore <= 0
// falls back to the default of 50.
func NewHeartsEngine(endingScore int) (*HeartsEngine, error) {
	if endingScore <= 0 {
		endingScore = defaultEndingScore
	}
	h := &HeartsEngine{endingScore: endingScore}
	if err := h.startRound(1); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HeartsEngine) GameType() GameType        { return GameHearts }
func (h *HeartsEngine) Phase() HeartsPhase        { return h.phase }
func (h *HeartsEngine) RoundNumber() int          { return h.roundNumber }
func (h *HeartsEngine) PassDirection() PassDirection { return h.passDirection }
func (h *HeartsEngine) CurrentPlayer() Seat       { return h.currentPlayer }
func (h *HeartsEngine) HeartsBroken() bool        { return h.heartsBroken }
func (h *HeartsEngine) TricksPlayed() int         { return h.tricksPlayed }
func (h *HeartsEngine) CumulativeScores() [4]int  { return h.cumulativeScores }
func (h *HeartsEngine) RoundScores() [4]int       { return h.roundScores }
func (h *HeartsEngine) CurrentTrick() []cards.PlayedCard {
	return append([]cards.PlayedCard{}, h.currentTrick...)
}
func (h *HeartsEngine) LastTrick() []cards.PlayedCard {
	return append([]cards.PlayedCard{}, h.lastTrick...)
}
func (h *HeartsEngine) Hand(seat Seat) []cards.Card {
	return append([]cards.Card{}, h.hands[seat]...)
}
func (h *HeartsEngine) PendingPassSeats() map[Seat]bool {
	out := make(map[Seat]bool, len(h.pendingPasses))
	for s := range h.pendingPasses {
		out[s] = true
	}
	return out
}

func (h *HeartsEngine) IsHandInProgress() bool {
	return h.phase == HeartsPassing || h.phase == HeartsPlaying
}

func (h *HeartsEngine) IsGameOver() bool { return h.phase == HeartsGameEnd }

// Winners returns the seats tied for the lowest cumulative score, valid
// once IsGameOver reports true.
func (h *HeartsEngine) Winners() []Seat {
	min := h.cumulativeScores[0]
	for _, s := range h.cumulativeScores[1:] {
		if s < min {
			min = s
		}
	}
	var winners []Seat
	for seat, s := range h.cumulativeScores {
		if s == min {
			winners = append(winners, Seat(seat))
		}
	}
	return winners
}

func passDirectionForRound(round int) PassDirection {
	switch ((round - 1) % 4) + 1 {
	case 1:
		return PassLeft
	case 2:
		return PassRight
	case 3:
		return PassAcross
	default:
		return PassHold
	}
}

func passReceiver(giver Seat, dir PassDirection) Seat {
	switch dir {
	case PassLeft:
		return nextSeat(giver)
	case PassRight:
		return prevSeat(giver)
	case PassAcross:
		return Seat((int(giver) + 2) % numSeats)
	default:
		return giver
	}
}

func (h *HeartsEngine) startRound(round int) error {
	deck, err := cards.NewShuffledDeck()
	if err != nil {
		return err
	}
	hands, err := cards.Deal(deck, heartsSuitOrder)
	if err != nil {
		return err
	}

	h.hands = hands
	h.roundNumber = round
	h.heartsBroken = false
	h.tricksPlayed = 0
	h.currentTrick = nil
	h.lastTrick = nil
	h.tricksTaken = [4][]cards.Card{}
	h.roundScores = [4]int{}
	h.pendingPasses = make(map[Seat][]cards.Card)
	h.passDirection = passDirectionForRound(round)
	h.phase = HeartsDealing

	if h.passDirection == PassHold {
		h.phase = HeartsPlaying
		h.currentPlayer = h.findTwoOfClubs()
	} else {
		h.phase = HeartsPassing
	}
	return nil
}

// StartNextRound deals the following round after a roundEnd. It is a
// no-op error if the current round is not over.
func (h *HeartsEngine) StartNextRound() error {
	if h.phase != HeartsRoundEnd {
		return newError(ErrPhase, "hearts: round is not over")
	}
	return h.startRound(h.roundNumber + 1)
}

func (h *HeartsEngine) findTwoOfClubs() Seat {
	for seat, hand := range h.hands {
		if cards.Contains(hand, twoOfClubs) {
			return Seat(seat)
		}
	}
	return 0
}

// SubmitPass records seat's three outgoing cards. Once all four seats have
// submitted, the exchange is applied atomically and the phase advances to
// playing.
func (h *HeartsEngine) SubmitPass(seat Seat, outgoing []cards.Card) error {
	if h.phase != HeartsPassing {
		return newError(ErrPhase, "hearts: not in passing phase")
	}
	if _, already := h.pendingPasses[seat]; already {
		return newError(ErrBadPass, "hearts: seat already submitted a pass")
	}
	if len(outgoing) != 3 {
		return newError(ErrBadPass, "hearts: must pass exactly 3 cards")
	}

	seen := make(map[cards.Card]bool, 3)
	for _, c := range outgoing {
		if seen[c] {
			return newError(ErrBadPass, "hearts: duplicate card in pass")
		}
		seen[c] = true
		if !cards.Contains(h.hands[seat], c) {
			return newError(ErrBadPass, "hearts: card not in hand")
		}
	}

	h.pendingPasses[seat] = append([]cards.Card{}, outgoing...)
	if len(h.pendingPasses) == numSeats {
		h.applyPassExchange()
	}
	return nil
}

func (h *HeartsEngine) applyPassExchange() {
	var incoming [4][]cards.Card
	for giver := Seat(0); giver < numSeats; giver++ {
		receiver := passReceiver(giver, h.passDirection)
		for _, c := range h.pendingPasses[giver] {
			h.hands[giver], _ = cards.Remove(h.hands[giver], c)
			incoming[receiver] = append(incoming[receiver], c)
		}
	}
	for seat := Seat(0); seat < numSeats; seat++ {
		h.hands[seat] = append(h.hands[seat], incoming[seat]...)
		cards.SortHand(h.hands[seat], heartsSuitOrder)
	}

	h.pendingPasses = make(map[Seat][]cards.Card)
	h.phase = HeartsPlaying
	h.currentPlayer = h.findTwoOfClubs()
}

// LegalCards returns the pure legal-card set for seat as if it were seat's
// turn, independent of whose turn it actually is.
func (h *HeartsEngine) LegalCards(seat Seat) []cards.Card {
	hand := h.hands[seat]
	firstTrick := h.tricksPlayed == 0
	leading := len(h.currentTrick) == 0

	if leading {
		if firstTrick && cards.Contains(hand, twoOfClubs) {
			return []cards.Card{twoOfClubs}
		}
		if h.heartsBroken {
			return append([]cards.Card{}, hand...)
		}
		var candidates []cards.Card
		for _, c := range hand {
			if c.Suit != cards.Hearts {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 0 {
			candidates = append(candidates, hand...)
		}
		return candidates
	}

	ledSuit := h.currentTrick[0].Card.Suit
	var candidates []cards.Card
	for _, c := range hand {
		if c.Suit == ledSuit {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, hand...)
	}
	if firstTrick {
		candidates = withholdPointCardsUnlessForced(candidates)
	}
	return candidates
}

func withholdPointCardsUnlessForced(candidates []cards.Card) []cards.Card {
	var safe []cards.Card
	for _, c := range candidates {
		if c.Suit == cards.Hearts || c.Equal(queenOfSpades) {
			continue
		}
		safe = append(safe, c)
	}
	if len(safe) == 0 {
		return candidates
	}
	return safe
}

// HeartsPlayResult reports what happened after a successful PlayCard, so
// the table controller can emit cardPlayed / trickEnd / roundEnd / gameEnd
// in order without re-deriving them from state.
type HeartsPlayResult struct {
	TrickComplete bool
	TrickWinner   Seat
	RoundComplete bool
	RoundScores   [4]int
	MoonShooter   *Seat
	GameComplete  bool
}

// PlayCard validates and applies seat's play of card.
func (h *HeartsEngine) PlayCard(seat Seat, card cards.Card) (*HeartsPlayResult, error) {
	if h.phase != HeartsPlaying {
		return nil, newError(ErrPhase, "hearts: not in playing phase")
	}
	if seat != h.currentPlayer {
		return nil, newError(ErrNotYourTurn, "hearts: not seat's turn")
	}
	if !cards.Contains(h.hands[seat], card) {
		return nil, newError(ErrIllegalCard, "hearts: card not in hand")
	}
	if !cards.Contains(h.LegalCards(seat), card) {
		return nil, newError(ErrIllegalCard, "hearts: card is not legal")
	}

	h.hands[seat], _ = cards.Remove(h.hands[seat], card)
	h.currentTrick = append(h.currentTrick, cards.PlayedCard{Seat: int(seat), Card: card})
	if card.Suit == cards.Hearts {
		h.heartsBroken = true
	}

	result := &HeartsPlayResult{}

	if len(h.currentTrick) < numSeats {
		h.currentPlayer = nextSeat(seat)
		return result, nil
	}

	winner, err := cards.TrickWinner(h.currentTrick, nil)
	if err != nil {
		return nil, newError(ErrInternal, err.Error())
	}
	for _, pc := range h.currentTrick {
		h.tricksTaken[winner] = append(h.tricksTaken[winner], pc.Card)
	}
	h.lastTrick = h.currentTrick
	h.currentTrick = nil
	h.tricksPlayed++
	h.currentPlayer = Seat(winner)

	result.TrickComplete = true
	result.TrickWinner = Seat(winner)

	if h.tricksPlayed == 13 {
		shooter := h.completeRound()
		result.RoundComplete = true
		result.RoundScores = h.roundScores
		result.MoonShooter = shooter
		result.GameComplete = h.phase == HeartsGameEnd
	}

	return result, nil
}

// completeRound scores the just-finished round, applying the moon-shot
// disambiguation, and advances the phase to roundEnd or gameEnd. It
// returns the shooter's seat, if any.
func (h *HeartsEngine) completeRound() *Seat {
	var points [4]int
	for seat := range h.tricksTaken {
		for _, c := range h.tricksTaken[seat] {
			switch {
			case c.Suit == cards.Hearts:
				points[seat]++
			case c.Equal(queenOfSpades):
				points[seat] += 13
			}
		}
	}

	shooter := -1
	for seat, p := range points {
		if p == 26 {
			shooter = seat
			break
		}
	}

	roundScores := points
	var shooterSeat *Seat
	if shooter >= 0 {
		s := Seat(shooter)
		shooterSeat = &s

		var optionA, optionB [4]int
		for seat := range optionA {
			if seat != shooter {
				optionA[seat] = 26
			}
		}
		optionB[shooter] = 26

		hypoA := addScores(h.cumulativeScores, optionA)
		hypoB := addScores(h.cumulativeScores, optionB)

		if hypoA[shooter] <= minExcluding(hypoA, shooter) {
			roundScores = optionA
		} else if hypoB[shooter] <= minExcluding(hypoB, shooter) {
			roundScores = optionB
		} else {
			roundScores = optionA
		}
	}

	h.roundScores = roundScores
	for seat := range h.cumulativeScores {
		h.cumulativeScores[seat] += roundScores[seat]
	}

	h.phase = HeartsRoundEnd
	if maxOf(h.cumulativeScores[:]) >= h.endingScore {
		h.phase = HeartsGameEnd
	}
	return shooterSeat
}

func addScores(a, b [4]int) [4]int {
	var out [4]int
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return out
}

func minExcluding(scores [4]int, exclude int) int {
	min := 0
	first := true
	for i, s := range scores {
		if i == exclude {
			continue
		}
		if first || s < min {
			min = s
			first = false
		}
	}
	return min
}

func maxOf(scores []int) int {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	return max
}
