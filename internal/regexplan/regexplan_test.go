package regexplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gramsOf(t *testing.T, p *Plan) []string {
	t.Helper()
	require.NotNil(t, p)
	return p.Grams()
}

func TestCompileLiteralProducesRequiredGrams(t *testing.T) {
	p, err := Compile("hello", 3)
	require.NoError(t, err)
	grams := gramsOf(t, p)
	assert.NotEmpty(t, grams)
	for _, c := range p.Clauses {
		assert.Len(t, c, 1, "a plain literal should only ever produce singleton required clauses")
	}
}

func TestCompileShortLiteralYieldsAny(t *testing.T) {
	// "ab" is shorter than any derivable gram (MinGramLength=3), so no
	// sound requirement can be derived.
	p, err := Compile("ab", 3)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCompileDotStarYieldsAny(t *testing.T) {
	p, err := Compile(".*", 3)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCompileConcatenationAndsClauses(t *testing.T) {
	pFoo, err := Compile("foobar", 3)
	require.NoError(t, err)
	pConcat, err := Compile("foo.*bar", 3)
	require.NoError(t, err)
	// "foo.*bar" can't promise the exact concatenation, but it still
	// requires grams from "foo" AND grams from "bar" individually.
	require.NotNil(t, pConcat)
	require.NotNil(t, pFoo)
	assert.Equal(t, []string{"bar", "foo"}, pConcat.Grams())
}

func TestCompileAlternationOfLiteralsOrsClauses(t *testing.T) {
	p, err := Compile("cathedral|dogmatic", 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	// At least one clause should be a genuine disjunction since the two
	// branches share no grams.
	foundOr := false
	for _, c := range p.Clauses {
		if len(c) > 1 {
			foundOr = true
		}
	}
	assert.True(t, foundOr, "alternation of two disjoint literals should produce an OR clause")
}

func TestCompileAlternationWithShortBranchYieldsAny(t *testing.T) {
	p, err := Compile("hello|a", 3)
	require.NoError(t, err)
	assert.Nil(t, p, "a branch too short to gram makes the whole alternation unconstrained")
}

func TestCompilePlusRequiresSubGrams(t *testing.T) {
	p, err := Compile("(banana)+", 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NotEmpty(t, p.Grams())
}

func TestCompileQuestionMarkKeepsSurroundingLiteralGrams(t *testing.T) {
	p, err := Compile("colou?r", 3)
	require.NoError(t, err)
	// "colou?r" concatenates EXACT("colo") with ANY (the optional u)
	// with EXACT("r"); grams from "colo" alone are too short a literal
	// piece for K=3 in isolation only if shorter than a gram — here
	// "colo" is 4 runes so it should still yield a constraint.
	require.NotNil(t, p)
}

func TestCompileInvalidRegexReturnsError(t *testing.T) {
	_, err := Compile("(unclosed", 3)
	assert.Error(t, err)
}

func TestPlanGramsDeduplicatesAndSorts(t *testing.T) {
	p, err := Compile("abcabc", 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	grams := p.Grams()
	seen := make(map[string]bool)
	for _, g := range grams {
		assert.False(t, seen[g], "duplicate gram %q", g)
		seen[g] = true
	}
	for i := 1; i < len(grams); i++ {
		assert.LessOrEqual(t, grams[i-1], grams[i])
	}
}

func TestNilPlanStringIsAny(t *testing.T) {
	var p *Plan
	assert.Equal(t, "ANY", p.String())
}
