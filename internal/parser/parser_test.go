package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octofhir/fhirpath/internal/parser"
)

func mustParse(t *testing.T, src string) parser.Node {
	t.Helper()
	n, err := parser.Parse(src)
	require.NoError(t, err)
	return n
}

func TestParseMemberAccessChain(t *testing.T) {
	n := mustParse(t, "Patient.name.given")
	outer, ok := n.(parser.MethodCall)
	require.True(t, ok)
	assert.Equal(t, "given", outer.Name)
	assert.False(t, outer.IsCall)

	middle, ok := outer.Target.(parser.MethodCall)
	require.True(t, ok)
	assert.Equal(t, "name", middle.Name)

	_, ok = middle.Target.(parser.Identifier)
	require.True(t, ok)
}

func TestParseFunctionCallWithArgs(t *testing.T) {
	n := mustParse(t, "name.where(use = 'official')")
	call, ok := n.(parser.MethodCall)
	require.True(t, ok)
	assert.Equal(t, "where", call.Name)
	assert.True(t, call.IsCall)
	require.Len(t, call.Args, 1)

	eq, ok := call.Args[0].(parser.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "=", eq.Op)
}

func TestParseBinaryOperatorPrecedence(t *testing.T) {
	// Multiplication binds tighter than addition.
	n := mustParse(t, "1 + 2 * 3")
	add, ok := n.(parser.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)

	mul, ok := add.Right.(parser.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestParseUnionLowerPrecedenceThanAdditive(t *testing.T) {
	n := mustParse(t, "1 + 2 | 3")
	union, ok := n.(parser.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "|", union.Op)

	_, ok = union.Left.(parser.BinaryOp)
	require.True(t, ok)
}

func TestParseImpliesIsRightAssociative(t *testing.T) {
	n := mustParse(t, "true implies false implies true")
	outer, ok := n.(parser.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "implies", outer.Op)

	inner, ok := outer.Right.(parser.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "implies", inner.Op)
}

func TestParseTypeCheckAndCastOperators(t *testing.T) {
	n := mustParse(t, "value is FHIR.Quantity")
	check, ok := n.(parser.TypeCheck)
	require.True(t, ok)
	assert.Equal(t, "FHIR", check.Type.Namespace)
	assert.Equal(t, "Quantity", check.Type.Name)

	n = mustParse(t, "value as System.String")
	cast, ok := n.(parser.TypeCast)
	require.True(t, ok)
	assert.Equal(t, "System", cast.Type.Namespace)
}

func TestParseIndexer(t *testing.T) {
	n := mustParse(t, "name[0]")
	idx, ok := n.(parser.Indexer)
	require.True(t, ok)
	_, ok = idx.Index.(parser.Literal)
	require.True(t, ok)
}

func TestParseLiteralKinds(t *testing.T) {
	tests := []struct {
		src  string
		kind parser.LiteralKind
	}{
		{"true", parser.LitBoolean},
		{"'hi'", parser.LitString},
		{"42", parser.LitNumber},
		{"42L", parser.LitLongNumber},
		{"@2020-01-01", parser.LitDate},
		{"@2020-01-01T10:00:00Z", parser.LitDateTime},
		{"@T10:00:00", parser.LitTime},
		{"{}", parser.LitEmpty},
		{"4 'wk'", parser.LitQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n := mustParse(t, tt.src)
			lit, ok := n.(parser.Literal)
			require.True(t, ok)
			assert.Equal(t, tt.kind, lit.Kind)
		})
	}
}

func TestParseSpecialInvocations(t *testing.T) {
	n := mustParse(t, "repeat($this.children())")
	call, ok := n.(parser.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "repeat", call.Name)
	require.Len(t, call.Args, 1)
	_, ok = call.Args[0].(parser.MethodCall)
	require.True(t, ok)
}

func TestParseTrailingGarbageIsError(t *testing.T) {
	_, err := parser.Parse("1 + 2 )")
	assert.Error(t, err)
}

func TestParseAnalysisRecoversDiagnostics(t *testing.T) {
	_, diags := parser.ParseAnalysis("Patient..name")
	assert.NotEmpty(t, diags)
}
