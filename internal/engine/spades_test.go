package engine

import (
	"testing"

	"cardtable/internal/cards"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpades(t *testing.T) *SpadesEngine {
	t.Helper()
	s, err := NewSpadesEngine(300)
	require.NoError(t, err)
	return s
}

func TestNewSpadesEngineDealsAndOpensBidding(t *testing.T) {
	s := newTestSpades(t)
	assert.Equal(t, SpadesBidding, s.phase)
	assert.Equal(t, Seat(0), s.currentBidder)
	total := 0
	for seat := Seat(0); seat < 4; seat++ {
		assert.Len(t, s.Hand(seat), 13)
		total += len(s.Hand(seat))
	}
	assert.Equal(t, 52, total)
}

func TestSpadesBlindNilRequiresTrailingByAtLeastOneHundred(t *testing.T) {
	s := newTestSpades(t)
	s.cumulativeScores = [2]int{0, 0}
	assert.False(t, s.CanBidBlindNil(0))

	s.cumulativeScores = [2]int{0, 100}
	assert.True(t, s.CanBidBlindNil(0))
}

func TestSpadesBlindNilBlockedIfPartnerAlreadyBidIt(t *testing.T) {
	s := newTestSpades(t)
	s.cumulativeScores = [2]int{0, 100}
	s.bids[2] = BidBlindNil{}
	assert.False(t, s.CanBidBlindNil(0))
}

func TestSpadesSubmitBidRejectsOutOfTurn(t *testing.T) {
	s := newTestSpades(t)
	err := s.SubmitBid(1, BidNumber(3))
	require.Error(t, err)
	assert.Equal(t, ErrNotYourTurn, err.(*GameError).Kind)
}

func TestSpadesSubmitBidRejectsIneligibleBlindNil(t *testing.T) {
	s := newTestSpades(t)
	s.cumulativeScores = [2]int{0, 0}
	err := s.SubmitBid(0, BidBlindNil{})
	require.Error(t, err)
	assert.Equal(t, ErrBlindNilNotAllowed, err.(*GameError).Kind)
}

func TestSpadesAllFourBidsTransitionsToPlaying(t *testing.T) {
	s := newTestSpades(t)
	require.NoError(t, s.SubmitBid(0, BidNumber(3)))
	require.NoError(t, s.SubmitBid(1, BidNumber(4)))
	require.NoError(t, s.SubmitBid(2, BidNil{}))
	require.NoError(t, s.SubmitBid(3, BidNumber(2)))
	assert.Equal(t, SpadesPlaying, s.phase)
}

func spadesAtPlay(t *testing.T) *SpadesEngine {
	t.Helper()
	s := newTestSpades(t)
	require.NoError(t, s.SubmitBid(0, BidNumber(3)))
	require.NoError(t, s.SubmitBid(1, BidNumber(3)))
	require.NoError(t, s.SubmitBid(2, BidNumber(3)))
	require.NoError(t, s.SubmitBid(3, BidNumber(3)))
	return s
}

func TestSpadesCannotLeadSpadesBeforeBroken(t *testing.T) {
	s := spadesAtPlay(t)
	legal := s.LegalCards(s.currentPlayer)
	if !cards.AllSuit(s.Hand(s.currentPlayer), cards.Spades) {
		for _, c := range legal {
			assert.NotEqual(t, cards.Spades, c.Suit)
		}
	}
}

func TestSpadesMustFollowSuitWhenAble(t *testing.T) {
	s := spadesAtPlay(t)
	leader := s.currentPlayer
	legal := s.LegalCards(leader)
	_, err := s.PlayCard(leader, legal[0])
	require.NoError(t, err)

	follower := s.currentPlayer
	ledSuit := s.currentTrick[0].Card.Suit
	hasLed := false
	for _, c := range s.Hand(follower) {
		if c.Suit == ledSuit {
			hasLed = true
		}
	}
	followerLegal := s.LegalCards(follower)
	if hasLed {
		for _, c := range followerLegal {
			assert.Equal(t, ledSuit, c.Suit)
		}
	}
}

func TestSpadesNilBonusAndTeamBidScoring(t *testing.T) {
	s := newTestSpades(t)
	s.bids = [4]Bid{BidNumber(3), BidNil{}, BidNumber(2), BidNumber(1)}
	s.tricksTakenBySeat = [4]int{3, 0, 2, 1}
	s.teamTricks = [2]int{5, 3}

	s.completeRound()

	// team 0 (seats 0,2): bid 3+2=5, tricks 5, no bags; no nil bids.
	assert.Equal(t, 50, s.roundScores[0])
	// team 1 (seats 1,3): bid 0(nil)+1=1, tricks 3, bags=2; nil seat 1 made it (+50).
	assert.Equal(t, 50+10+2, s.roundScores[1])
}

func TestSpadesSetScoringOnMissedBid(t *testing.T) {
	s := newTestSpades(t)
	s.bids = [4]Bid{BidNumber(5), BidNumber(0), BidNumber(5), BidNumber(0)}
	s.tricksTakenBySeat = [4]int{3, 0, 2, 0}
	s.teamTricks = [2]int{5, 0}
	s.completeRound()
	assert.Equal(t, -100, s.roundScores[0])
}

func TestSpadesBagPenaltyTriggersAtTenBags(t *testing.T) {
	s := newTestSpades(t)
	s.bagCount = [2]int{9, 0}
	s.bids = [4]Bid{BidNumber(1), BidNumber(0), BidNumber(0), BidNumber(0)}
	s.tricksTakenBySeat = [4]int{2, 0, 0, 0}
	s.teamTricks = [2]int{2, 0}
	s.completeRound()
	// 1 new bag pushes bagCount to 10 -> -100 penalty applied, bagCount resets to 0
	assert.Equal(t, 0, s.bagCount[0])
	assert.Equal(t, 10+1-100, s.roundScores[0])
}

func TestSpadesGameEndsAtWinThreshold(t *testing.T) {
	s := newTestSpades(t)
	s.winThreshold = 300
	s.cumulativeScores = [2]int{280, 0}
	s.bids = [4]Bid{BidNumber(2), BidNumber(0), BidNumber(0), BidNumber(0)}
	s.tricksTakenBySeat = [4]int{2, 0, 0, 0}
	s.teamTricks = [2]int{2, 0}
	s.completeRound()
	assert.Equal(t, SpadesGameEnd, s.phase)
	assert.Equal(t, []int{0}, s.Winners())
}
