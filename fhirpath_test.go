package fhirpath_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octofhir/fhirpath"
	"github.com/octofhir/fhirpath/model"
	"github.com/octofhir/fhirpath/value"
)

// End-to-end scenarios exercising the parser, model provider, registry and
// evaluator together against real resource JSON.

const patientJSON = `{
	"resourceType": "Patient",
	"id": "p1",
	"name": [{"given": ["Ada", "Grace"], "family": "Lovelace"}]
}`

const observationJSON = `{
	"resourceType": "Observation",
	"id": "o1",
	"status": "final",
	"valueQuantity": {"value": 38.2, "unit": "Cel", "system": "http://unitsofmeasure.org", "code": "Cel"}
}`

const bundleJSON = `{
	"resourceType": "Bundle",
	"type": "collection",
	"entry": [
		{"resource": {"resourceType": "Patient", "id": "p1"}},
		{"resource": {"resourceType": "Observation", "id": "o1", "status": "final", "subject": {"reference": "Patient/p1"}}}
	]
}`

func evalAgainst(t *testing.T, data []byte, expr string) value.Collection {
	t.Helper()
	provider := model.NewStaticProvider(model.R4)
	result, err := fhirpath.EvaluateResource(context.Background(), provider, data, fhirpath.MustParse(expr), nil)
	require.NoError(t, err)
	return result
}

func TestGivenNameFirst(t *testing.T) {
	result := evalAgainst(t, []byte(patientJSON), "Patient.name.given.first()")
	require.Len(t, result, 1)
	assert.Equal(t, value.String("Ada"), result[0])
}

func TestObservationValueAsQuantityComparison(t *testing.T) {
	result := evalAgainst(t, []byte(observationJSON), "Observation.value.as(Quantity).value > 37")
	require.Len(t, result, 1)
	assert.Equal(t, value.Boolean(true), result[0])
}

func TestBundleEntryResourceOfType(t *testing.T) {
	result := evalAgainst(t, []byte(bundleJSON), "Bundle.entry.resource.ofType(Patient).id")
	require.Len(t, result, 1)
	assert.Equal(t, value.String("p1"), result[0])
}

func TestResolveFindsResourceInBundleRoot(t *testing.T) {
	result := evalAgainst(t, []byte(bundleJSON), "Bundle.entry.resource.ofType(Observation).subject.resolve().id")
	require.Len(t, result, 1)
	assert.Equal(t, value.String("p1"), result[0])
}

func TestResolveMissingTargetIsEmpty(t *testing.T) {
	result := evalAgainst(t, []byte(observationJSON), "Observation.subject.resolve()")
	assert.Empty(t, result)
}

func TestDistinctPreservesFirstOccurrenceOrder(t *testing.T) {
	provider := model.NewStaticProvider(model.R4)
	expr := fhirpath.MustParse("(1 | 2 | 2 | 3).distinct()")
	result, err := fhirpath.Evaluate(context.Background(), value.Boolean(true), expr, provider, nil)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, value.Integer(1), result[0])
	assert.Equal(t, value.Integer(2), result[1])
	assert.Equal(t, value.Integer(3), result[2])
}

func TestAggregateSum(t *testing.T) {
	provider := model.NewStaticProvider(model.R4)
	expr := fhirpath.MustParse("(1|2|3).aggregate($this + $total, 0)")
	result, err := fhirpath.Evaluate(context.Background(), value.Boolean(true), expr, provider, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, value.Integer(6), result[0])
}

func TestStringStartsAndEndsWith(t *testing.T) {
	provider := model.NewStaticProvider(model.R4)
	expr := fhirpath.MustParse("'hello'.startsWith('he') and 'hello'.endsWith('lo')")
	result, err := fhirpath.Evaluate(context.Background(), value.Boolean(true), expr, provider, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, value.Boolean(true), result[0])
}

func TestDateTimeArithmeticAddsCalendarDay(t *testing.T) {
	provider := model.NewStaticProvider(model.R4)
	expr := fhirpath.MustParse("@2015-02-04T14:34:28Z + 1 'day'")
	result, err := fhirpath.Evaluate(context.Background(), value.Boolean(true), expr, provider, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	want, err := value.ParseDateTime("@2015-02-05T14:34:28Z")
	require.NoError(t, err)
	got, ok := result[0].(value.DateTime)
	require.True(t, ok)
	eq, ok := got.Equal(want)
	require.True(t, ok)
	assert.True(t, eq)
}

func TestEngineEvaluateUsesCache(t *testing.T) {
	provider := model.NewStaticProvider(model.R4)
	engine := fhirpath.NewEngine(provider, nil, fhirpath.WithCache(16))

	node, err := model.NewResourceNode(context.Background(), provider, []byte(patientJSON))
	require.NoError(t, err)

	result, err := engine.Evaluate(context.Background(), "Patient.name.given.first()", node)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, value.String("Ada"), result[0])

	result, err = engine.Evaluate(context.Background(), "Patient.name.given.first()", node)
	require.NoError(t, err)
	require.Len(t, result, 1)

	stats := engine.CacheStats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLowBoundaryAndHighBoundaryAreCallable(t *testing.T) {
	provider := model.NewStaticProvider(model.R4)

	expr := fhirpath.MustParse("1.587.lowBoundary(2)")
	result, err := fhirpath.Evaluate(context.Background(), value.Boolean(true), expr, provider, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	dec, ok := result[0].(value.Decimal)
	require.True(t, ok)
	assert.Equal(t, "1.58", dec.String())

	expr = fhirpath.MustParse("@2014.highBoundary(6)")
	result, err = fhirpath.Evaluate(context.Background(), value.Boolean(true), expr, provider, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	date, ok := result[0].(value.Date)
	require.True(t, ok)
	assert.Equal(t, value.DatePrecisionMonth, date.Precision)
}

func TestEngineEvaluateWithVariable(t *testing.T) {
	provider := model.NewStaticProvider(model.R4)
	engine := fhirpath.NewEngine(provider, nil)

	node, err := model.NewResourceNode(context.Background(), provider, []byte(patientJSON))
	require.NoError(t, err)

	result, err := engine.Evaluate(context.Background(), "%threshold", node, fhirpath.WithVariable("threshold", value.Collection{value.Integer(5)}))
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, value.Integer(5), result[0])
}
