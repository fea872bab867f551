package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_SimpleTokens(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("ID", "identifier"))
	b.AddClass(NewTokenClass("WS", "whitespace"))
	require.NoError(t, b.AddRule("[a-z]+", LexAs("id"), 1))
	require.NoError(t, b.AddRule("[ \t\n]+", Discard(), 2))

	table, err := b.Build()
	require.NoError(t, err)

	lx, err := NewLexer(table, strings.NewReader("foo bar"))
	require.NoError(t, err)

	tok1 := lx.Next()
	assert.Equal(t, "foo", tok1.Lexeme())
	assert.Equal(t, "id", tok1.Class().ID())

	tok2 := lx.Next()
	assert.Equal(t, "bar", tok2.Lexeme())

	tok3 := lx.Next()
	assert.Equal(t, TokenEndOfText, tok3.Class())
}

func TestLexer_RankBreaksTie(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("IF", "if"))
	b.AddClass(NewTokenClass("ID", "identifier"))
	require.NoError(t, b.AddRule("if", LexAs("if"), 2))
	require.NoError(t, b.AddRule("[a-z]+", LexAs("id"), 1))

	table, err := b.Build()
	require.NoError(t, err)

	lx, err := NewLexer(table, strings.NewReader("if"))
	require.NoError(t, err)

	tok := lx.Next()
	assert.Equal(t, "if", tok.Class().ID())
}

// TestLexer_RankBeatsLength is spec scenario 6: a higher-rank rule that
// matches fewer runes must still win over a lower-rank rule that would
// otherwise have matched more. "foo" (rank 2) stops the match at 3 runes
// even though "[a-z]+" (rank 1) could have consumed all of "foobar".
func TestLexer_RankBeatsLength(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("FOO", "foo"))
	b.AddClass(NewTokenClass("ID", "identifier"))
	require.NoError(t, b.AddRule("foo", LexAs("foo"), 2))
	require.NoError(t, b.AddRule("[a-z]+", LexAs("id"), 1))

	table, err := b.Build()
	require.NoError(t, err)

	lx, err := NewLexer(table, strings.NewReader("foobar"))
	require.NoError(t, err)

	tok1 := lx.Next()
	assert.Equal(t, "foo", tok1.Lexeme())
	assert.Equal(t, "foo", tok1.Class().ID())

	tok2 := lx.Next()
	assert.Equal(t, "bar", tok2.Lexeme())
	assert.Equal(t, "id", tok2.Class().ID())
}

func TestLexer_ConditionPushPop(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("STR", "string"))
	b.AddClass(NewTokenClass("CHUNK", "string chunk"))
	require.NoError(t, b.AddRule(`"`, Push("STRING"), 1, "INITIAL"))
	require.NoError(t, b.AddRule(`[^"]+`, LexAs("chunk"), 2, "STRING"))
	require.NoError(t, b.AddRule(`"`, LexAndPop("str"), 3, "STRING"))

	table, err := b.Build()
	require.NoError(t, err)

	lx, err := NewLexer(table, strings.NewReader(`"hello"`))
	require.NoError(t, err)

	tok1 := lx.Next()
	assert.Equal(t, "chunk", tok1.Class().ID())
	assert.Equal(t, "hello", tok1.Lexeme())

	tok2 := lx.Next()
	assert.Equal(t, "str", tok2.Class().ID())
}

func TestLexer_StuckRecoveryAdvancesOneRune(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("ID", "identifier"))
	require.NoError(t, b.AddRule("[a-z]+", LexAs("id"), 1))

	table, err := b.Build()
	require.NoError(t, err)

	lx, err := NewLexer(table, strings.NewReader("a#b"))
	require.NoError(t, err)

	tok1 := lx.Next()
	assert.Equal(t, "a", tok1.Lexeme())

	tok2 := lx.Next()
	assert.Equal(t, "b", tok2.Lexeme())
	assert.Len(t, lx.Diagnostics(), 1)
}

func TestLexer_TrailingContext(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("IF", "if"))
	b.AddClass(NewTokenClass("ID", "identifier"))
	require.NoError(t, b.AddRule("if/[ \t]", LexAs("if"), 2))
	require.NoError(t, b.AddRule("[a-z]+", LexAs("id"), 1))
	require.NoError(t, b.AddRule("[ \t]+", Discard(), 3))

	table, err := b.Build()
	require.NoError(t, err)

	lx, err := NewLexer(table, strings.NewReader("if x"))
	require.NoError(t, err)

	tok := lx.Next()
	assert.Equal(t, "if", tok.Lexeme())
	assert.Equal(t, "if", tok.Class().ID())
}

func TestBuilder_AddRule_RejectsUnknownClass(t *testing.T) {
	b := NewBuilder()
	err := b.AddRule("x", LexAs("missing"), 1)
	assert.Error(t, err)
}

func TestBuilder_TrailingContext_RejectsVariableLength(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("IF", "if"))
	require.NoError(t, b.AddRule("if/[ \t]*", LexAs("if"), 1))
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuilder_ConditionInclusion(t *testing.T) {
	b := NewBuilder()
	b.AddClass(NewTokenClass("NUM", "number"))
	b.AddClass(NewTokenClass("ID", "identifier"))
	b.Include("EXPR", "INITIAL")
	require.NoError(t, b.AddRule("[0-9]+", LexAs("num"), 1, "INITIAL"))
	require.NoError(t, b.AddRule("[a-z]+", LexAs("id"), 2, "EXPR"))

	table, err := b.Build()
	require.NoError(t, err)
	assert.NotNil(t, table.conditions["EXPR"])
}
