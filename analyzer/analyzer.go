// Package analyzer implements the FHIRPath static analyzer (C7): a
// best-effort AST walk that annotates every node with its resolved type(s)
// and cardinality, and reports signature/type diagnostics ahead of
// evaluation. The teacher has no equivalent stage — this package is built
// directly from spec.md's 4.7 resolution rules, consulting model.Provider
// and registry.Registry the same way the teacher's invocation.go consults
// them during evaluation (resolveType/subTypeOf), just earlier.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/octofhir/fhirpath/diagnostic"
	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/model"
	"github.com/octofhir/fhirpath/registry"
	"github.com/octofhir/fhirpath/value"
)

// Cardinality is the analyzer's coarse estimate of how many elements a node
// may produce.
type Cardinality int

const (
	CardZeroOne Cardinality = iota
	CardZeroMany
	CardOneOne
	CardOneMany
)

// Union combines two cardinalities conservatively: any branch that can
// produce zero makes the union able to produce zero, and any branch that
// can produce many makes the union able to produce many.
func (c Cardinality) Union(other Cardinality) Cardinality {
	canZero := c.CanBeZero() || other.CanBeZero()
	canMany := c.CanBeMany() || other.CanBeMany()
	switch {
	case canZero && canMany:
		return CardZeroMany
	case canZero:
		return CardZeroOne
	case canMany:
		return CardOneMany
	default:
		return CardOneOne
	}
}

func (c Cardinality) CanBeZero() bool { return c == CardZeroOne || c == CardZeroMany }
func (c Cardinality) CanBeMany() bool { return c == CardZeroMany || c == CardOneMany }

func (c Cardinality) String() string {
	switch c {
	case CardZeroOne:
		return "0..1"
	case CardZeroMany:
		return "0..*"
	case CardOneOne:
		return "1..1"
	case CardOneMany:
		return "1..*"
	default:
		return "?"
	}
}

// Confidence reflects how much the analyzer trusts an annotation: Exact
// when the provider resolved a concrete type, Inferred when it was derived
// from a coercion/union rule, Unknown when the schema had nothing to say
// (validation is then skipped rather than flagged, per spec.md's
// best-effort mandate).
type Confidence int

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceInferred
	ConfidenceExact
)

// Annotation is the semantic summary attached to one AST node: a possibly
// multi-member union of candidate types (non-empty unless Confidence is
// Unknown), its cardinality, and how sure the analyzer is.
type Annotation struct {
	Types       []value.TypeSpecifier
	Cardinality Cardinality
	Confidence  Confidence
}

func unknownAnnotation() Annotation {
	return Annotation{Cardinality: CardZeroMany, Confidence: ConfidenceUnknown}
}

func exact(ts value.TypeSpecifier, card Cardinality) Annotation {
	return Annotation{Types: []value.TypeSpecifier{ts}, Cardinality: card, Confidence: ConfidenceExact}
}

// HasType reports whether name (ignoring namespace) is among a's candidate
// types.
func (a Annotation) HasType(name string) bool {
	for _, t := range a.Types {
		if t.Name == name {
			return true
		}
	}
	return false
}

func (a Annotation) String() string {
	if a.Confidence == ConfidenceUnknown {
		return "unknown"
	}
	if len(a.Types) == 1 {
		return fmt.Sprintf("%s (%s)", a.Types[0], a.Cardinality)
	}
	return fmt.Sprintf("%v (%s)", a.Types, a.Cardinality)
}

// Result is the output of one Analyze call: the root expression's own
// annotation, a per-node map for editor/IDE consumption, and the
// diagnostics collected along the way.
type Result struct {
	Root        Annotation
	Types       map[parser.Node]Annotation
	Diagnostics []diagnostic.Diagnostic
}

// HasErrors reports whether any collected diagnostic is Error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Analyzer walks a parsed expression against a model provider and function
// registry, annotating every node per spec.md 4.7's resolution rules.
type Analyzer struct {
	provider model.Provider
	registry *registry.Registry
}

// New builds an Analyzer consulting provider for type/property resolution
// and reg for function signatures. A nil reg falls back to the package-level
// default registry.
func New(provider model.Provider, reg *registry.Registry) *Analyzer {
	if reg == nil {
		reg = registry.GetRegistry()
	}
	return &Analyzer{provider: provider, registry: reg}
}

// scope carries the ambient type context a node is analyzed under: the
// focus (current input) annotation. Inside a lambda body $this resolves to
// this same focus annotation; no separate $this annotation is kept.
type scope struct {
	focus Annotation
}

// Analyze annotates root, whose input is rootType at the given cardinality
// (typically the resource type the expression will run against, 1..1).
func (a *Analyzer) Analyze(ctx context.Context, root parser.Node, rootType value.TypeSpecifier, rootCard Cardinality) *Result {
	res := &Result{Types: make(map[parser.Node]Annotation)}
	s := scope{focus: exact(rootType, rootCard)}
	res.Root = a.walk(ctx, root, s, res)
	return res
}

func (a *Analyzer) record(res *Result, node parser.Node, ann Annotation) Annotation {
	res.Types[node] = ann
	return ann
}

func (a *Analyzer) diag(res *Result, d diagnostic.Diagnostic) {
	res.Diagnostics = append(res.Diagnostics, d)
}

func (a *Analyzer) walk(ctx context.Context, node parser.Node, s scope, res *Result) Annotation {
	switch n := node.(type) {
	case parser.Literal:
		return a.record(res, n, a.literalType(n))
	case parser.Identifier:
		return a.record(res, n, a.resolveProperty(ctx, s.focus, n.Name, n.Span(), res))
	case parser.Variable:
		return a.record(res, n, a.resolveVariable(n))
	case parser.SpecialInvocation:
		return a.record(res, n, a.resolveSpecial(n, s))
	case parser.Parens:
		return a.record(res, n, a.walk(ctx, n.Inner, s, res))
	case parser.Indexer:
		target := a.walk(ctx, n.Target, s, res)
		a.walk(ctx, n.Index, s, res)
		return a.record(res, n, Annotation{Types: target.Types, Cardinality: CardZeroOne, Confidence: target.Confidence})
	case parser.MethodCall:
		return a.record(res, n, a.walkInvocation(ctx, n.Target, n.Name, n.Args, n.IsCall, n.Span(), s, res))
	case parser.FunctionCall:
		return a.record(res, n, a.walkInvocation(ctx, nil, n.Name, n.Args, true, n.Span(), s, res))
	case parser.BinaryOp:
		return a.record(res, n, a.walkBinaryOp(ctx, n, s, res))
	case parser.UnaryOp:
		operand := a.walk(ctx, n.Operand, s, res)
		return a.record(res, n, operand)
	case parser.TypeCheck:
		a.walk(ctx, n.Expr, s, res)
		return a.record(res, n, exact(value.TypeSpecifier{Namespace: "System", Name: "Boolean"}, CardOneOne))
	case parser.TypeCast:
		target := a.walk(ctx, n.Expr, s, res)
		return a.record(res, n, Annotation{Types: []value.TypeSpecifier{{Namespace: n.Type.Namespace, Name: n.Type.Name}}, Cardinality: CardZeroOne, Confidence: target.Confidence})
	case parser.Tuple:
		var card Cardinality = CardZeroOne
		for _, el := range n.Elements {
			a.walk(ctx, el, s, res)
			card = card.Union(CardZeroMany)
		}
		return a.record(res, n, Annotation{Cardinality: card, Confidence: ConfidenceUnknown})
	default:
		return a.record(res, node, unknownAnnotation())
	}
}

func (a *Analyzer) literalType(lit parser.Literal) Annotation {
	name := "String"
	switch lit.Kind {
	case parser.LitBoolean:
		name = "Boolean"
	case parser.LitNumber:
		name = "Integer"
		if strings.Contains(lit.Text, ".") {
			name = "Decimal"
		}
	case parser.LitLongNumber:
		name = "Long"
	case parser.LitDate:
		name = "Date"
	case parser.LitDateTime:
		name = "DateTime"
	case parser.LitTime:
		name = "Time"
	case parser.LitQuantity:
		name = "Quantity"
	case parser.LitEmpty:
		return Annotation{Cardinality: CardZeroOne, Confidence: ConfidenceExact}
	}
	return exact(value.TypeSpecifier{Namespace: "System", Name: name}, CardOneOne)
}

func (a *Analyzer) resolveVariable(v parser.Variable) Annotation {
	switch v.Name {
	case "context", "resource", "rootResource":
		return unknownAnnotation()
	case "ucum":
		return exact(value.TypeSpecifier{Namespace: "System", Name: "String"}, CardOneOne)
	case "sct", "loinc", "vs":
		return exact(value.TypeSpecifier{Namespace: "System", Name: "String"}, CardOneOne)
	default:
		return unknownAnnotation()
	}
}

func (a *Analyzer) resolveSpecial(n parser.SpecialInvocation, s scope) Annotation {
	switch n.Kind {
	case parser.SpecialThis:
		return Annotation{Types: s.focus.Types, Cardinality: CardOneOne, Confidence: s.focus.Confidence}
	case parser.SpecialIndex:
		return exact(value.TypeSpecifier{Namespace: "System", Name: "Integer"}, CardOneOne)
	case parser.SpecialTotal:
		return unknownAnnotation()
	default:
		return unknownAnnotation()
	}
}

// resolveProperty implements rule 1: `.property` consults
// GetElementType(current, property); a `[x]` choice suffix expands to the
// matching set of concrete typed properties via
// GetCollectionElementTypes/IsMixedCollection.
func (a *Analyzer) resolveProperty(ctx context.Context, focus Annotation, property string, span diagnostic.Span, res *Result) Annotation {
	if focus.Confidence == ConfidenceUnknown || a.provider == nil {
		return unknownAnnotation()
	}
	// A bare resource-type identifier at term position (e.g. `Patient` at
	// the start of an expression) is a type filter confirming focus is that
	// resource, not a property access; the evaluator's navigation step
	// disambiguates this the same way, so the analyzer mirrors it by
	// checking ResourceTypeExists before attempting a property lookup.
	if ok, err := a.provider.ResourceTypeExists(ctx, property); err == nil && ok {
		if focus.HasType(property) {
			return focus
		}
		if !focus.anyElementHasProperty(ctx, a.provider, property) {
			return exact(value.TypeSpecifier{Namespace: "FHIR", Name: property}, CardOneOne)
		}
	}
	var types []value.TypeSpecifier
	var card Cardinality
	found := false
	for _, t := range focus.Types {
		ti, ok, err := a.provider.GetElementType(ctx, t.Name, property)
		if err != nil || !ok {
			continue
		}
		found = true
		mixed, _ := a.provider.IsMixedCollection(ctx, t.Name, property)
		var variants []value.TypeInfo
		if mixed {
			variants, _ = a.provider.GetCollectionElementTypes(ctx, t.Name, property)
		}
		for _, v := range variants {
			if vqn, ok := v.QualifiedName(); ok {
				types = append(types, vqn)
			}
		}
		if len(variants) == 0 {
			qn, _ := ti.QualifiedName()
			types = append(types, qn)
		}
		list := focus.Cardinality.CanBeMany()
		for name := t.Name; name != "" && !list; {
			pti, ok, err := a.provider.GetType(ctx, name)
			ci, isClass := pti.(value.ClassInfo)
			if err != nil || !ok || !isClass {
				break
			}
			for _, el := range ci.Element {
				list = list || (el.Name == property && el.Type.List)
			}
			name = ci.BaseType.Name
		}
		if mixed || list {
			card = card.Union(CardZeroMany)
		} else {
			card = card.Union(CardZeroOne)
		}
	}
	if !found {
		a.diag(res, diagnostic.Errorf(diagnostic.CodePropertyNotFound,
			"property %q not found on %s", property, focus).At(span).Build())
		return unknownAnnotation()
	}
	return Annotation{Types: dedupeTypeSpecifiers(types), Cardinality: card, Confidence: ConfidenceExact}
}

func (a Annotation) anyElementHasProperty(ctx context.Context, p model.Provider, property string) bool {
	for _, t := range a.Types {
		if _, ok, err := p.GetElementType(ctx, t.Name, property); err == nil && ok {
			return true
		}
	}
	return false
}

func dedupeTypeSpecifiers(types []value.TypeSpecifier) []value.TypeSpecifier {
	var out []value.TypeSpecifier
	for _, t := range types {
		seen := false
		for _, o := range out {
			if o == t {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, t)
		}
	}
	return out
}
