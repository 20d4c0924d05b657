// Package registry catalogues the FHIRPath functions and operators the
// evaluator (C8) dispatches by name. The container itself — a
// sync.RWMutex-guarded map plus Register/Get/Has/List — is grounded on
// robertoAraneda/gofhir's pkg/fhirpath/funcs/registry.go. Function bodies
// are adapted from the teacher's fhirpath/functions.go, rewritten against
// this repo's value.Collection/value.Element types and the hand-rolled
// parser.Node AST instead of the teacher's ANTLR-backed Expression/Element.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/model"
	"github.com/octofhir/fhirpath/value"
)

// Category groups functions for editor completion and documentation,
// mirroring the split the teacher's funcs package uses for its own files.
type Category string

const (
	CategoryExistence  Category = "existence"
	CategoryFiltering  Category = "filtering"
	CategorySubsetting Category = "subsetting"
	CategoryCombining  Category = "combining"
	CategoryString     Category = "string"
	CategoryMath       Category = "math"
	CategoryTemporal   Category = "temporal"
	CategoryConversion Category = "conversion"
	CategoryTypeCheck  Category = "type-check"
	CategoryAggregate  Category = "aggregate"
	CategoryUtility    Category = "utility"
)

// Param describes one formal parameter of a function signature.
type Param struct {
	Name     string
	Type     value.TypeSpecifier
	Optional bool
	Variadic bool
	// Lambda marks a parameter that receives a raw AST node (bound to
	// $this/$index/$total in a child scope) rather than a pre-evaluated
	// collection.
	Lambda bool
}

// Signature is the registry's metadata about one function: identifier,
// arity, parameter/return types, category, and a purity hint exposed
// through SupportsSync (spec.md 4.6's supports_sync()). The evaluator's
// dispatch does not read the hint; every call runs synchronously.
type Signature struct {
	Name     string
	Doc      string
	Params   []Param
	Return   value.TypeSpecifier
	Category Category
	// Pure functions never consult the model provider or a terminology
	// service, so the dispatcher may always take the synchronous path.
	Pure bool
}

// MinArity is the smallest number of arguments Params accepts.
func (s Signature) MinArity() int {
	n := 0
	for _, p := range s.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// MaxArity is the largest number of arguments Params accepts, or -1 when
// the last parameter is variadic.
func (s Signature) MaxArity() int {
	if len(s.Params) > 0 && s.Params[len(s.Params)-1].Variadic {
		return -1
	}
	return len(s.Params)
}

// SupportsSync reports the hint from spec.md 4.6, which is true for
// functions marked Pure. No dispatcher in this module reads it.
func (s Signature) SupportsSync() bool { return s.Pure }

// EvalContext is the evaluator-supplied capability a function body uses to
// evaluate its own arguments (including lambda arguments) and to consult
// ambient state ($this/$index/$total, variables, the model provider). The
// evaluator (C8) implements this; registry functions only ever see the
// interface, so this package has no dependency on the evaluator.
type EvalContext interface {
	// Eval evaluates node with focus as the current input collection,
	// inheriting the receiver's variable/this/index/total scope.
	Eval(ctx context.Context, node parser.Node, focus value.Collection) (value.Collection, error)
	// WithScope returns a child EvalContext with $this/$index/$total bound
	// for one iteration of a lambda function (where, select, all, ...).
	WithScope(this value.Element, index int, total value.Collection) EvalContext
	// This, Index and TotalVar read back the bindings WithScope installed;
	// ok is false outside any lambda scope.
	This() (value.Element, bool)
	Index() (int, bool)
	TotalVar() (value.Collection, bool)
	// Root is the resource the expression was evaluated against
	// (%resource / %context's outermost binding).
	Root() value.Collection
	// Variable resolves a `%name` external constant or user-defined
	// variable (defineVariable()).
	Variable(name string) (value.Collection, bool)
	// WithVariable returns a child EvalContext with name bound to val,
	// used by defineVariable().
	WithVariable(name string, val value.Collection) EvalContext
	// Provider is the model provider backing type/property resolution
	// (is/as/ofType, children(), resolve()).
	Provider() model.Provider
	// CheckCollectionSize guards against pathological repeat()/descendants()
	// expressions that never converge, returning an error once n exceeds the
	// configured collection-size limit.
	CheckCollectionSize(ctx context.Context, n int) error
}

// Func is a function implementation. args are the raw, unevaluated
// argument AST nodes — non-lambda functions evaluate them eagerly via
// ec.Eval, lambda functions evaluate them once per element via a child
// EvalContext from ec.WithScope. focus is the function's input collection
// (the left-hand side of `.fn(...)`, or the root collection for a bare
// call).
type Func func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error)

// FuncDef pairs a Signature with its implementation.
type FuncDef struct {
	Signature
	Impl Func
}

// Registry is a thread-safe catalogue of FuncDef, keyed by function name.
// Grounded on robertoAraneda/gofhir's pkg/fhirpath/funcs/registry.go.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]FuncDef
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]FuncDef)}
}

// Register adds or replaces def under def.Name.
func (r *Registry) Register(def FuncDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[def.Name] = def
}

// Get looks up a function by name.
func (r *Registry) Get(name string) (FuncDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.funcs[name]
	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// List returns every registered FuncDef, in no particular order.
func (r *Registry) List() []FuncDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]FuncDef, 0, len(r.funcs))
	for _, def := range r.funcs {
		defs = append(defs, def)
	}
	return defs
}

var globalRegistry = NewDefaultRegistry()

// Register adds def to the package-level global registry.
func Register(def FuncDef) { globalRegistry.Register(def) }

// Get looks up name in the package-level global registry.
func Get(name string) (FuncDef, bool) { return globalRegistry.Get(name) }

// Has reports whether name is registered in the global registry.
func Has(name string) bool { return globalRegistry.Has(name) }

// List returns every FuncDef in the global registry.
func List() []FuncDef { return globalRegistry.List() }

// GetRegistry returns the package-level global registry itself, for
// callers (the Engine façade) that want to build a private copy seeded
// from the defaults.
func GetRegistry() *Registry { return globalRegistry }

// NewDefaultRegistry builds a fresh Registry pre-populated with every
// function this package implements, split by category the way the
// teacher's funcs package files are split.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	registerExistence(r)
	registerFiltering(r)
	registerSubsetting(r)
	registerCombining(r)
	registerStringFuncs(r)
	registerMathFuncs(r)
	registerTemporalFuncs(r)
	registerBoundaryFuncs(r)
	registerConversion(r)
	registerTypeFuncs(r)
	registerAggregate(r)
	registerUtility(r)
	return r
}

// anyType is the wildcard parameter/return type used where the signature
// accepts or yields any System/FHIR type.
var anyType = value.TypeSpecifier{Namespace: "System", Name: "Any"}

func boolType() value.TypeSpecifier { return value.TypeSpecifier{Namespace: "System", Name: "Boolean"} }
func intType() value.TypeSpecifier  { return value.TypeSpecifier{Namespace: "System", Name: "Integer"} }
func strType() value.TypeSpecifier  { return value.TypeSpecifier{Namespace: "System", Name: "String"} }
func decType() value.TypeSpecifier  { return value.TypeSpecifier{Namespace: "System", Name: "Decimal"} }

func requireArity(name string, args []parser.Node, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		if min == max {
			return fmt.Errorf("%s: expected %d argument(s), got %d", name, min, len(args))
		}
		return fmt.Errorf("%s: expected between %d and %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

// singleton extracts the one element of a single-item collection, applying
// the Element interface's own conversion method via a type switch over
// any(v).(type), grounded on the teacher's generic elementTo[T] helper
// (fhirpath/types.go).
func singleton[T value.Element](c value.Collection) (v T, ok bool, err error) {
	if len(c) == 0 {
		return v, false, nil
	}
	if len(c) > 1 {
		return v, false, fmt.Errorf("expected a single value, got %d", len(c))
	}
	return elementTo[T](c[0], false)
}

func elementTo[T value.Element](e value.Element, explicit bool) (v T, ok bool, err error) {
	switch any(v).(type) {
	case value.Boolean:
		r, ok, err := e.ToBoolean(explicit)
		return any(r).(T), ok, err
	case value.String:
		r, ok, err := e.ToString(explicit)
		return any(r).(T), ok, err
	case value.Integer:
		r, ok, err := e.ToInteger(explicit)
		return any(r).(T), ok, err
	case value.Long:
		r, ok, err := e.ToLong(explicit)
		return any(r).(T), ok, err
	case value.Decimal:
		r, ok, err := e.ToDecimal(explicit)
		return any(r).(T), ok, err
	case value.Date:
		r, ok, err := e.ToDate(explicit)
		return any(r).(T), ok, err
	case value.Time:
		r, ok, err := e.ToTime(explicit)
		return any(r).(T), ok, err
	case value.DateTime:
		r, ok, err := e.ToDateTime(explicit)
		return any(r).(T), ok, err
	case value.Quantity:
		r, ok, err := e.ToQuantity(explicit)
		return any(r).(T), ok, err
	default:
		return v, false, fmt.Errorf("cannot convert to type %T", v)
	}
}
