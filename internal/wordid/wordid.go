// Package wordid generates short, human-readable table identifiers —
// "amber-falcon" rather than a raw UUID — so a table id is easy to read
// aloud or type into a join box.
package wordid

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"amber", "azure", "bold", "calm", "coral", "crimson", "dapper", "eager",
	"fleet", "golden", "hidden", "ivory", "jolly", "keen", "lively", "misty",
	"noble", "onyx", "plucky", "quiet", "rapid", "silver", "tidy", "umber",
	"velvet", "witty", "zesty",
}

var nouns = []string{
	"falcon", "otter", "heron", "badger", "lynx", "raven", "marten", "ibex",
	"puffin", "gecko", "viper", "swift", "weasel", "condor", "jackal",
	"mantis", "osprey", "panther", "tapir", "wombat", "zebra",
}

// Generator checks a candidate id against whatever uniqueness source the
// caller is generating against (typically a registry's map of live tables).
type Generator func(candidate string) bool

// Generate produces a word-pair id. It retries up to 100 times against
// taken, then falls back to appending a random 4-digit suffix to guarantee
// termination even if the word space is nearly exhausted.
func Generate(taken Generator) (string, error) {
	for i := 0; i < 100; i++ {
		candidate, err := randomPair()
		if err != nil {
			return "", err
		}
		if taken == nil || !taken(candidate) {
			return candidate, nil
		}
	}

	base, err := randomPair()
	if err != nil {
		return "", err
	}
	suffix, err := cryptoRandInt(10000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", base, suffix), nil
}

func randomPair() (string, error) {
	a, err := cryptoRandInt(len(adjectives))
	if err != nil {
		return "", err
	}
	n, err := cryptoRandInt(len(nouns))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", adjectives[a], nouns[n]), nil
}

func cryptoRandInt(n int) (int, error) {
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, fmt.Errorf("wordid: random source failed: %w", err)
	}
	return int(v.Int64()), nil
}
