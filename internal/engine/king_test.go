package engine

import (
	"testing"

	"cardtable/internal/cards"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKing(t *testing.T) *KingEngine {
	t.Helper()
	k, err := NewKingEngine(0)
	require.NoError(t, err)
	return k
}

func TestNewKingEngineDealsAndOpensSelecting(t *testing.T) {
	k := newTestKing(t)
	assert.Equal(t, KingSelecting, k.phase)
	assert.Equal(t, 1, k.gameNumber)
	total := 0
	for seat := Seat(0); seat < 4; seat++ {
		assert.Len(t, k.Hand(seat), 13)
		total += len(k.Hand(seat))
	}
	assert.Equal(t, 52, total)
}

func TestKingSelectContractRejectsWrongSeat(t *testing.T) {
	k := newTestKing(t)
	err := k.SelectContract(1, PenaltyContract{Name: PenaltyEl})
	require.Error(t, err)
	assert.Equal(t, ErrNotYourTurn, err.(*GameError).Kind)
}

func TestKingSelectContractEnforcesPerSelectorPenaltyQuota(t *testing.T) {
	k := newTestKing(t)
	k.perSelectorUsage[0] = SelectorUsage{Penalties: 3}
	err := k.SelectContract(0, PenaltyContract{Name: PenaltyEl})
	require.Error(t, err)
	assert.Equal(t, ErrQuotaExhausted, err.(*GameError).Kind)
}

func TestKingSelectContractEnforcesGlobalCap(t *testing.T) {
	k := newTestKing(t)
	k.globalContractUsage[contractUsageKey(PenaltyContract{Name: PenaltyEl})] = 2
	err := k.SelectContract(0, PenaltyContract{Name: PenaltyEl})
	require.Error(t, err)
	assert.Equal(t, ErrQuotaExhausted, err.(*GameError).Kind)
}

func TestKingSelectContractSucceedsAndStartsPlay(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, PenaltyContract{Name: PenaltyEl}))
	assert.Equal(t, KingPlaying, k.phase)
	assert.Equal(t, Seat(0), k.currentPlayer)
	assert.Equal(t, 1, k.perSelectorUsage[0].Penalties)
	assert.Equal(t, 1, k.globalContractUsage["el"])
}

func TestKingTrumpLeadRestrictedUntilBroken(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, TrumpContract{Suit: cards.Spades}))

	legal := k.LegalCards(0)
	if !cards.AllSuit(k.Hand(0), cards.Spades) {
		for _, c := range legal {
			assert.NotEqual(t, cards.Spades, c.Suit)
		}
	}
}

func TestKingElScoringIsNegativeFiftyPerTrick(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, PenaltyContract{Name: PenaltyEl}))
	k.trickCounts = [4]int{3, 4, 2, 4}
	k.completeGame()
	assert.Equal(t, [4]int{-150, -200, -100, -200}, k.gameScores)
	assert.Equal(t, KingGameEnd, k.phase)
}

func TestKingTrumpScoringIsPositiveFiftyPerTrick(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, TrumpContract{Suit: cards.Hearts}))
	k.trickCounts = [4]int{3, 4, 2, 4}
	k.completeGame()
	assert.Equal(t, [4]int{150, 200, 100, 200}, k.gameScores)
}

func TestKingRifkiScoresWholeCapturedPenalty(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, PenaltyContract{Name: PenaltyRifki}))
	k.tricksTaken[3] = []cards.Card{cards.New(cards.King, cards.Hearts)}
	k.completeGame()
	assert.Equal(t, -320, k.gameScores[3])
	for seat, score := range k.gameScores {
		if seat != 3 {
			assert.Equal(t, 0, score)
		}
	}
}

func TestKingSonIkiScoresLastTwoTrickWinners(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, PenaltyContract{Name: PenaltySonIki}))
	for i := 0; i < 11; i++ {
		k.trickWinners = append(k.trickWinners, 0)
	}
	k.trickWinners = append(k.trickWinners, 1, 2)
	k.completeGame()
	assert.Equal(t, -180, k.gameScores[1])
	assert.Equal(t, -180, k.gameScores[2])
	assert.Equal(t, 0, k.gameScores[0])
}

func TestKingPartyEndsAtGameTwenty(t *testing.T) {
	k := newTestKing(t)
	k.gameNumber = 20
	require.NoError(t, k.SelectContract(0, PenaltyContract{Name: PenaltyEl}))
	k.completeGame()
	assert.Equal(t, KingPartyEnd, k.phase)
	assert.True(t, k.IsGameOver())
}

func TestKingStartNextGameRotatesSelectorCounterClockwise(t *testing.T) {
	k := newTestKing(t)
	k.selectorSeat = 1
	require.NoError(t, k.SelectContract(1, PenaltyContract{Name: PenaltyEl}))
	k.completeGame()
	require.NoError(t, k.StartNextGame())
	assert.Equal(t, Seat(0), k.selectorSeat)
	assert.Equal(t, 2, k.gameNumber)
}

func TestKingErkekForcesLosingKingOrJackWhenFollowing(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, PenaltyContract{Name: PenaltyErkek}))

	k.hands[1] = []cards.Card{cards.New(cards.Jack, cards.Clubs), cards.New(cards.Nine, cards.Clubs)}
	k.currentTrick = []cards.PlayedCard{{Seat: 0, Card: cards.New(cards.Ace, cards.Clubs)}}

	legal := k.LegalCards(1)
	require.Len(t, legal, 1)
	assert.Equal(t, cards.New(cards.Jack, cards.Clubs), legal[0])
}

func TestKingPlayCardRejectsIllegalCard(t *testing.T) {
	k := newTestKing(t)
	require.NoError(t, k.SelectContract(0, TrumpContract{Suit: cards.Clubs}))

	var allTrumps = true
	for _, c := range k.Hand(0) {
		if c.Suit != cards.Clubs {
			allTrumps = false
			break
		}
	}
	if allTrumps {
		t.Skip("dealt hand happens to be all trump; restriction does not apply")
	}

	var trumpCard cards.Card
	found := false
	for _, c := range k.Hand(0) {
		if c.Suit == cards.Clubs {
			trumpCard = c
			found = true
			break
		}
	}
	if !found {
		t.Skip("seat holds no trump to exercise the restriction")
	}

	_, err := k.PlayCard(0, trumpCard)
	require.Error(t, err)
	assert.Equal(t, ErrIllegalCard, err.(*GameError).Kind)
}
