package wordid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesWordPair(t *testing.T) {
	id, err := Generate(nil)
	require.NoError(t, err)
	parts := strings.Split(id, "-")
	assert.Len(t, parts, 2)
	assert.Contains(t, adjectives, parts[0])
	assert.Contains(t, nouns, parts[1])
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	calls := 0
	taken := func(candidate string) bool {
		calls++
		return calls < 3
	}
	id, err := Generate(taken)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 3, calls)
}

func TestGenerateFallsBackToSuffixWhenExhausted(t *testing.T) {
	id, err := Generate(func(candidate string) bool { return true })
	require.NoError(t, err)
	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 4)
}
