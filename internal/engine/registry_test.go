package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsEachRegisteredVariant(t *testing.T) {
	h, err := New(GameHearts, Config{HeartsEndScore: 50})
	require.NoError(t, err)
	assert.Equal(t, GameHearts, h.GameType())

	k, err := New(GameKing, Config{KingFirstSelect: 0})
	require.NoError(t, err)
	assert.Equal(t, GameKing, k.GameType())

	s, err := New(GameSpades, Config{SpadesWinScore: 300})
	require.NoError(t, err)
	assert.Equal(t, GameSpades, s.GameType())
}

func TestNewRejectsUnknownGameType(t *testing.T) {
	_, err := New(GameType("euchre"), Config{})
	assert.Error(t, err)
}

func TestSupportedGamesListsBuiltins(t *testing.T) {
	games := SupportedGames()
	assert.Contains(t, games, GameHearts)
	assert.Contains(t, games, GameKing)
	assert.Contains(t, games, GameSpades)
}
