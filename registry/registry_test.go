package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octofhir/fhirpath/registry"
)

func TestDefaultRegistryHasEveryCategory(t *testing.T) {
	r := registry.NewDefaultRegistry()
	for _, name := range []string{
		"where", "select", "first", "last", "combine", "union",
		"startsWith", "abs", "round", "today", "now",
		"lowBoundary", "highBoundary", "toInteger", "is", "aggregate", "trace",
	} {
		assert.True(t, r.Has(name), "expected %s to be registered", name)
	}
}

func TestGetReturnsSignatureMetadata(t *testing.T) {
	r := registry.NewDefaultRegistry()
	def, ok := r.Get("lowBoundary")
	require.True(t, ok)
	assert.Equal(t, "lowBoundary", def.Name)
	assert.Equal(t, registry.CategoryMath, def.Category)
	assert.True(t, def.Pure)
	assert.Equal(t, 0, def.MinArity())
	assert.Equal(t, 1, def.MaxArity())
}

func TestHighBoundaryRegisteredAlongsideLowBoundary(t *testing.T) {
	r := registry.NewDefaultRegistry()
	assert.True(t, r.Has("highBoundary"))
	_, ok := r.Get("highBoundary")
	require.True(t, ok)
}

func TestRegisterOverridesExistingEntry(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(registry.FuncDef{Signature: registry.Signature{Name: "stub"}})
	assert.True(t, r.Has("stub"))
	r.Register(registry.FuncDef{Signature: registry.Signature{Name: "stub", Doc: "replaced"}})
	got, ok := r.Get("stub")
	require.True(t, ok)
	assert.Equal(t, "replaced", got.Doc)
}

func TestListIncludesRegisteredFunction(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(registry.FuncDef{Signature: registry.Signature{Name: "onlyOne"}})
	defs := r.List()
	require.Len(t, defs, 1)
	assert.Equal(t, "onlyOne", defs[0].Name)
}

func TestSignatureArityWithVariadicParam(t *testing.T) {
	sig := registry.Signature{
		Params: []registry.Param{
			{Name: "a"},
			{Name: "rest", Variadic: true, Optional: true},
		},
	}
	assert.Equal(t, 1, sig.MinArity())
	assert.Equal(t, -1, sig.MaxArity())
}
