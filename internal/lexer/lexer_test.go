package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octofhir/fhirpath/diagnostic"
	"github.com/octofhir/fhirpath/internal/lexer"
)

func tokenize(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)
	return toks
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []lexer.Kind
	}{
		{"identifier chain", "Patient.name", []lexer.Kind{lexer.Identifier, lexer.Dot, lexer.Identifier, lexer.EOF}},
		{"string literal", "'hello'", []lexer.Kind{lexer.String, lexer.EOF}},
		{"decimal number", "3.14", []lexer.Kind{lexer.Number, lexer.EOF}},
		{"long number", "42L", []lexer.Kind{lexer.LongNumber, lexer.EOF}},
		{"external constant", "%resource", []lexer.Kind{lexer.ExternalConstant, lexer.EOF}},
		{"special variables", "$this + $index + $total", []lexer.Kind{
			lexer.This, lexer.Plus, lexer.Index, lexer.Plus, lexer.Total, lexer.EOF,
		}},
		{"date literal", "@2015-02-04", []lexer.Kind{lexer.Date, lexer.EOF}},
		{"datetime literal", "@2015-02-04T14:34:28Z", []lexer.Kind{lexer.DateTime, lexer.EOF}},
		{"time literal", "@T14:34:28", []lexer.Kind{lexer.Time, lexer.EOF}},
		{"keywords", "true and false or not", []lexer.Kind{
			lexer.KwTrue, lexer.KwAnd, lexer.KwFalse, lexer.KwOr, lexer.KwNot, lexer.EOF,
		}},
		{"comparison operators", "<= >= != !~", []lexer.Kind{
			lexer.Lte, lexer.Gte, lexer.NotEq, lexer.NotEquiv, lexer.EOF,
		}},
		{"line comment skipped", "1 // trailing comment\n+ 2", []lexer.Kind{lexer.Number, lexer.Plus, lexer.Number, lexer.EOF}},
		{"block comment skipped", "1 /* inline */ + 2", []lexer.Kind{lexer.Number, lexer.Plus, lexer.Number, lexer.EOF}},
		{"delimited identifier", "`div`.exists()", []lexer.Kind{
			lexer.DelimitedIdentifier, lexer.Dot, lexer.Identifier, lexer.LParen, lexer.RParen, lexer.EOF,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokenize(t, tt.src)
			kinds := make([]lexer.Kind, len(toks))
			for i, tok := range toks {
				kinds[i] = tok.Kind
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestStringLiteralUnescapesValue(t *testing.T) {
	toks := tokenize(t, `'line\nA'`)
	require.Len(t, toks, 2)
	assert.Equal(t, "line\nA", toks[0].Value)
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	_, err := lexer.Tokenize("'unterminated")
	require.Error(t, err)
	var lexErr *lexer.LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, diagnostic.CodeUnclosedString, lexErr.Code)
}

func TestUnexpectedCharacterIsLexError(t *testing.T) {
	_, err := lexer.Tokenize("1 # 2")
	require.Error(t, err)
}

func TestPartialDateLiterals(t *testing.T) {
	for _, src := range []string{"@2020", "@2020-05", "@2020-05-17"} {
		toks := tokenize(t, src)
		require.Len(t, toks, 2)
		assert.Equal(t, lexer.Date, toks[0].Kind)
		assert.Equal(t, src, toks[0].Text)
	}
}
