package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"loxi/internal/diag"
	"loxi/internal/scanner"
	"loxi/internal/token"
)

func scan(t *testing.T, src string) ([]token.Token, *diag.Writer) {
	t.Helper()
	reporter := diag.NewWriter(&discard{})
	toks := scanner.New([]byte(src), reporter).Scan()
	return toks, reporter
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanCompoundOperators(t *testing.T) {
	toks, reporter := scan(t, "+= -= *= /= == != <= >= =>")
	require.False(t, reporter.HadError())
	require.Equal(t, []token.Kind{
		token.PLUS_EQUAL, token.MINUS_EQUAL, token.STAR_EQUAL, token.SLASH_EQUAL,
		token.EQUAL_EQUAL, token.BANG_EQUAL, token.LESS_EQUAL, token.GREATER_EQUAL,
		token.FAT_ARROW, token.EOF,
	}, kinds(toks))
}

func TestScanKeywords(t *testing.T) {
	toks, _ := scan(t, "elseif declare instanceof")
	require.Equal(t, []token.Kind{token.ELSEIF, token.DECLARE, token.INSTANCEOF, token.EOF}, kinds(toks))
}

func TestScanRangeLiteralExclusive(t *testing.T) {
	toks, reporter := scan(t, "1..5")
	require.False(t, reporter.HadError())
	require.Equal(t, token.RANGE, toks[0].Kind)
	lit := toks[0].Literal.(token.RangeLiteral)
	require.Equal(t, 1.0, lit.Start)
	require.Equal(t, 5.0, lit.Stop)
}

func TestScanRangeLiteralInclusive(t *testing.T) {
	toks, _ := scan(t, "1..=5")
	lit := toks[0].Literal.(token.RangeLiteral)
	require.Equal(t, 1.0, lit.Start)
	require.Equal(t, 6.0, lit.Stop)
}

func TestScanBlockCommentNests(t *testing.T) {
	toks, reporter := scan(t, "/* outer /* inner */ still outer */ 1;")
	require.False(t, reporter.HadError())
	require.Equal(t, []token.Kind{token.NUMBER, token.SEMICOLON, token.EOF}, kinds(toks))
}

func TestScanUnterminatedBlockCommentErrors(t *testing.T) {
	_, reporter := scan(t, "/* never closed")
	require.True(t, reporter.HadError())
}

func TestScanUnterminatedStringErrors(t *testing.T) {
	_, reporter := scan(t, "\"oops\nno close")
	require.True(t, reporter.HadError())
}

func TestScanStringLiteral(t *testing.T) {
	toks, reporter := scan(t, `"hello world"`)
	require.False(t, reporter.HadError())
	require.Equal(t, "hello world", toks[0].Literal)
}
