package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"loxi/internal/token"
)

func TestKindStringKnown(t *testing.T) {
	require.Equal(t, "PLUS_EQUAL", token.PLUS_EQUAL.String())
	require.Equal(t, "ELSEIF", token.ELSEIF.String())
	require.Equal(t, "RANGE", token.RANGE.String())
}

func TestKindStringOutOfRange(t *testing.T) {
	require.Equal(t, "Kind(-1)", token.Kind(-1).String())
	require.Equal(t, "Kind(9999)", token.Kind(9999).String())
}

func TestKeywordsTableCoversReservedWords(t *testing.T) {
	for word, kind := range map[string]token.Kind{
		"declare":    token.DECLARE,
		"elseif":     token.ELSEIF,
		"of":         token.OF,
		"do":         token.DO,
		"instanceof": token.INSTANCEOF,
	} {
		require.Equal(t, kind, token.Keywords[word])
	}
}

func TestTokenStringFormatsNullLiteral(t *testing.T) {
	tok := token.Token{Kind: token.SEMICOLON, Lexeme: ";", Line: 1}
	require.Equal(t, "SEMICOLON ; null", tok.String())
}

func TestTokenStringFormatsLiteralValue(t *testing.T) {
	tok := token.Token{Kind: token.NUMBER, Lexeme: "42", Literal: float64(42), Line: 1}
	require.Equal(t, "NUMBER 42 42", tok.String())
}
