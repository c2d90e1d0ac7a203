package ngram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractShortStringsAreEmpty(t *testing.T) {
	for _, s := range []string{"", "a", "ab"} {
		assert.Empty(t, Extract(s, 3))
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	const s = "abcdefghijklmnopqrstuvwxyz0123456789"
	a := Extract(s, 4)
	b := Extract(s, 4)
	assert.Equal(t, a, b)
}

func TestExtractGramLengthBounds(t *testing.T) {
	const k = 5
	grams := Extract("the quick brown fox jumps over the lazy dog", k)
	require.NotEmpty(t, grams)
	for g := range grams {
		n := len([]rune(g))
		assert.GreaterOrEqual(t, n, MinGramLength)
		assert.LessOrEqual(t, n, k+1)
	}
}

func TestExtractAbcdeWithKEquals3(t *testing.T) {
	grams := Extract("abcde", 3)
	require.NotEmpty(t, grams)
	allowed := map[string]bool{"abc": true, "abcd": true, "bcd": true, "bcde": true, "cde": true}
	for g := range grams {
		assert.True(t, allowed[g], "unexpected gram %q", g)
	}
}

// Substring soundness: every gram the extractor derives from a needle
// also appears as a literal substring of any haystack containing that
// needle, so a planner that requires needle's grams never excludes a
// haystack that truly contains needle.
func TestSubstringSoundness(t *testing.T) {
	const needle = "helloworld"
	const haystack = "xxxxxxxxxxhelloworldyyyyyyyyyy"
	require.True(t, strings.Contains(haystack, needle))

	for g := range Extract(needle, 3) {
		assert.True(t, strings.Contains(haystack, g), "gram %q from needle missing in haystack", g)
	}
}

func TestExtractTextRejectsInvalidUTF8(t *testing.T) {
	_, err := ExtractText([]byte{0xff, 0xfe, 0xfd}, 3)
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestExtractTextAcceptsValidUTF8(t *testing.T) {
	grams, err := ExtractText([]byte("package main"), 3)
	require.NoError(t, err)
	assert.NotEmpty(t, grams)
}
