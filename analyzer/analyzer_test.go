package analyzer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octofhir/fhirpath/analyzer"
	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/model"
	"github.com/octofhir/fhirpath/value"
)

func mustAnalyze(t *testing.T, expr string) *analyzer.Result {
	t.Helper()
	node, err := parser.Parse(expr)
	require.NoError(t, err)
	a := analyzer.New(model.NewStaticProvider(model.R4), nil)
	return a.Analyze(context.Background(), node, value.TypeSpecifier{Namespace: "FHIR", Name: "Patient"}, analyzer.CardOneOne)
}

func TestResolvesDirectProperty(t *testing.T) {
	res := mustAnalyze(t, "Patient.name")
	require.Empty(t, res.Diagnostics)
	assert.True(t, res.Root.HasType("HumanName"))
	assert.Equal(t, analyzer.CardZeroMany, res.Root.Cardinality)
}

func TestUnknownPropertyIsDiagnosed(t *testing.T) {
	res := mustAnalyze(t, "Patient.frobnicate")
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, "FP0055", res.Diagnostics[0].Code)
	assert.True(t, res.Diagnostics[0].IsError())
}

func TestUnknownFunctionIsDiagnosed(t *testing.T) {
	res := mustAnalyze(t, "Patient.name.bogusFn()")
	require.NotEmpty(t, res.Diagnostics)
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == "FP0012" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestInvalidArityIsDiagnosed(t *testing.T) {
	res := mustAnalyze(t, "Patient.name.first('extra')")
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == "FP0101" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCountExistsSimplificationHint(t *testing.T) {
	res := mustAnalyze(t, "Patient.name.count() > 0")
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == "FP0153" {
			found = true
			assert.Equal(t, "hint", string(d.Severity))
		}
	}
	assert.True(t, found, "expected a count()>0 simplification hint")
}

func TestCountExistsSimplificationNotFlaggedForUnrelatedComparison(t *testing.T) {
	res := mustAnalyze(t, "Patient.name.count() > 1")
	for _, d := range res.Diagnostics {
		assert.NotEqual(t, "FP0153", d.Code)
	}
}

func TestOfTypeNarrowsUnionType(t *testing.T) {
	res := mustAnalyze(t, "Patient.name.ofType(HumanName)")
	require.NotEmpty(t, res.Root.Types)
	assert.Equal(t, "HumanName", res.Root.Types[0].Name)
}

func TestBooleanOperatorsYieldBoolean(t *testing.T) {
	res := mustAnalyze(t, "Patient.active = true")
	require.Len(t, res.Root.Types, 1)
	assert.Equal(t, "Boolean", res.Root.Types[0].Name)
}

func TestThisInLambdaScopeMirrorsFocus(t *testing.T) {
	res := mustAnalyze(t, "Patient.name.where($this.family = 'King')")
	require.Empty(t, res.Diagnostics)
}
