package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Literal(t *testing.T) {
	n, err := Parse("abc")
	require.NoError(t, err)
	assert.Equal(t, NodeConcat, n.Kind)
	assert.Len(t, n.Children, 3)
}

func TestParse_Alternation(t *testing.T) {
	n, err := Parse("a|b")
	require.NoError(t, err)
	assert.Equal(t, NodeAlt, n.Kind)
	assert.Len(t, n.Children, 2)
}

func TestParse_CountedRepeat(t *testing.T) {
	n, err := Parse("a{2,4}")
	require.NoError(t, err)
	assert.Equal(t, NodeRepeat, n.Kind)
	assert.Equal(t, 2, n.Min)
	assert.Equal(t, 4, n.Max)
}

func TestParse_UnboundedRepeat(t *testing.T) {
	n, err := Parse("a{2,}")
	require.NoError(t, err)
	assert.Equal(t, -1, n.Max)
}

func TestParse_CharClass_Negated(t *testing.T) {
	n, err := Parse("[^abc]")
	require.NoError(t, err)
	require.Equal(t, NodeClass, n.Kind)
	assert.True(t, n.Class.Negated)
	assert.False(t, n.Class.Matches('a'))
	assert.True(t, n.Class.Matches('x'))
}

func TestParse_TrailingContext(t *testing.T) {
	n, err := Parse("IF/[ \t]")
	require.NoError(t, err)
	assert.Equal(t, NodeTrailing, n.Kind)
	assert.Len(t, n.Children, 2)
}

func TestParse_UnterminatedGroup(t *testing.T) {
	_, err := Parse("(abc")
	assert.Error(t, err)
}

func runPattern(t *testing.T, pattern, input string) (matched bool, length int) {
	t.Helper()
	ast, err := Parse(pattern)
	require.NoError(t, err)
	nfa := Compile(ast)
	dfa := nfa.ToDFA()

	state := dfa.Start
	runes := []rune(input)
	lastAccept := -1
	if dfa.IsAccepting(state) {
		lastAccept = 0
	}
	for i, r := range runes {
		next := dfa.Next(state, string(r))
		if next == "" {
			break
		}
		state = next
		if dfa.IsAccepting(state) {
			lastAccept = i + 1
		}
	}
	return lastAccept >= 0, lastAccept
}

func TestCompile_SimpleLiteral(t *testing.T) {
	matched, length := runPattern(t, "cat", "cat")
	assert.True(t, matched)
	assert.Equal(t, 3, length)
}

func TestCompile_StarMatchesEmpty(t *testing.T) {
	matched, length := runPattern(t, "a*", "")
	assert.True(t, matched)
	assert.Equal(t, 0, length)
}

func TestCompile_StarMatchesLongest(t *testing.T) {
	matched, length := runPattern(t, "a*", "aaab")
	assert.True(t, matched)
	assert.Equal(t, 3, length)
}

func TestCompile_PlusRequiresOne(t *testing.T) {
	matched, _ := runPattern(t, "a+", "")
	assert.False(t, matched)
}

func TestCompile_Alternation(t *testing.T) {
	matched, length := runPattern(t, "cat|dog", "dog")
	assert.True(t, matched)
	assert.Equal(t, 3, length)
}

func TestCompile_Concatenation_DemotesInteriorAccept(t *testing.T) {
	// Regression test for the concatTwo bug where the left fragment's
	// accept state wasn't demoted: "ab" must not match after only "a".
	matched, length := runPattern(t, "ab", "a")
	assert.False(t, matched)
	assert.Equal(t, -1, length)
}

func TestCompile_CharClassRange(t *testing.T) {
	matched, length := runPattern(t, "[0-9]+", "42x")
	assert.True(t, matched)
	assert.Equal(t, 2, length)
}

func TestCompileSet_RankTiebreak(t *testing.T) {
	patterns := []Pattern{
		{Name: "ID", Source: "[a-z]+", Rank: 0, TrailingLen: -1},
		{Name: "IF", Source: "if", Rank: 1, TrailingLen: -1},
	}
	cs, err := CompileSet(patterns)
	require.NoError(t, err)

	end, m := cs.Run([]rune("if"))
	require.NotNil(t, m)
	assert.Equal(t, 2, end)
	assert.Equal(t, "IF", m.Name)
}

// TestCompileSet_LongestMatchWins confirms length only breaks ties between
// candidates of the same rank: both patterns here rank equally, so the
// longer of two competing matches wins.
func TestCompileSet_LongestMatchWins(t *testing.T) {
	patterns := []Pattern{
		{Name: "ID", Source: "[a-z]+", Rank: 0, TrailingLen: -1},
		{Name: "IF", Source: "if", Rank: 0, TrailingLen: -1},
	}
	cs, err := CompileSet(patterns)
	require.NoError(t, err)

	end, m := cs.Run([]rune("iffy"))
	require.NotNil(t, m)
	assert.Equal(t, 4, end)
	assert.Equal(t, "ID", m.Name)
}

// TestCompileSet_RankBeatsLength is spec scenario 6: a higher-rank pattern
// wins even when a lower-rank pattern would have matched more runes.
func TestCompileSet_RankBeatsLength(t *testing.T) {
	patterns := []Pattern{
		{Name: "ID", Source: "[a-z]+", Rank: 0, TrailingLen: -1},
		{Name: "IF", Source: "if", Rank: 1, TrailingLen: -1},
	}
	cs, err := CompileSet(patterns)
	require.NoError(t, err)

	end, m := cs.Run([]rune("iffy"))
	require.NotNil(t, m)
	assert.Equal(t, 2, end)
	assert.Equal(t, "IF", m.Name)
}

func TestPartition_SeparatesDistinctClasses(t *testing.T) {
	digits := Range('0', '9')
	letters := Union(Range('a', 'z'))
	classes := Partition([]*CharClass{digits, letters})

	for _, cls := range classes {
		for _, r := range []rune{'0', 'a'} {
			if cls.Matches(r) {
				for _, other := range []rune{'0', 'a'} {
					if other != r {
						assert.False(t, cls.Matches(other), "partition class %v should not straddle digit/letter boundary", cls)
					}
				}
			}
		}
	}
}

func TestCharClass_NegateRoundTrip(t *testing.T) {
	c := Range('a', 'z')
	neg := c.Negate()
	assert.False(t, neg.Matches('m'))
	assert.True(t, neg.Matches('0'))
}
