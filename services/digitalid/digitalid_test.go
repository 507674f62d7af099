package digitalid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ShapeAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := New()
		require.NoError(t, err)
		assert.Len(t, id, Length)
		assert.True(t, IsValid(id), "generated id %q must validate", id)
	}
}

func TestNew_UsesFullAlphabet(t *testing.T) {
	// With rejection sampling every character is equally likely; 400 ids
	// (3200 draws) make a missing character astronomically improbable, while
	// biased sampling would consistently over-represent the low characters.
	seen := map[byte]int{}
	for i := 0; i < 400; i++ {
		id, err := New()
		require.NoError(t, err)
		for j := 0; j < len(id); j++ {
			seen[id[j]]++
		}
	}
	for i := 0; i < len(Alphabet); i++ {
		assert.Greater(t, seen[Alphabet[i]], 0, "character %q never generated", string(Alphabet[i]))
	}
}

func TestAlphabet_NoAmbiguousCharacters(t *testing.T) {
	for _, c := range "01IL5S8BOb" {
		assert.NotContains(t, Alphabet, string(c))
	}
	// No duplicates either, or the distribution would skew.
	seen := map[rune]bool{}
	for _, c := range Alphabet {
		assert.False(t, seen[c], "duplicate alphabet char %q", c)
		seen[c] = true
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("ACDEFGHJ"))
	assert.False(t, IsValid("ACDEFGH"), "too short")
	assert.False(t, IsValid("ACDEFGHJK"), "too long")
	assert.False(t, IsValid("ACDEFGH0"), "ambiguous character")
	assert.False(t, IsValid(strings.ToLower("ACDEFGHJ")), "lowercase not allowed")
}
