package analyzer

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/diagnostic"
	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/registry"
	"github.com/octofhir/fhirpath/value"
)

// walkInvocation handles both MethodCall (target.name(args) or plain member
// access when !isCall) and FunctionCall (bare name(args), target == nil).
func (a *Analyzer) walkInvocation(ctx context.Context, target parser.Node, name string, args []parser.Node, isCall bool, span diagnostic.Span, s scope, res *Result) Annotation {
	focus := s.focus
	if target != nil {
		focus = a.walk(ctx, target, s, res)
	}
	if !isCall {
		// Plain member access, e.g. `Patient.name`.
		return a.resolveProperty(ctx, focus, name, span, res)
	}

	switch name {
	case "is", "as", "ofType":
		return a.walkTypeFunction(ctx, name, focus, args, span, s, res)
	case "resolve":
		return a.walkResolve(ctx, focus, span, res)
	case "children":
		return a.walkChildren(ctx, focus, span, res)
	}

	def, ok := a.registry.Get(name)
	if !ok {
		a.diag(res, diagnostic.Errorf(diagnostic.CodeUnknownFunction, "unknown function %q", name).At(span).Build())
		a.walkArgsOpaque(ctx, args, scope{focus: focus}, res)
		return unknownAnnotation()
	}

	a.checkArity(def.Name, def.MinArity(), def.MaxArity(), len(args), span, res)
	a.checkArgumentTypes(ctx, def, focus, args, span, s, res)

	// spec.md scenario 7: `.count() > 0` is better expressed `.exists()`.
	// The comparison itself is what should be flagged (it needs the sibling
	// `> 0`), so count() alone only records its own Integer return type;
	// walkBinaryOp emits the hint once it sees the full `count() > 0` shape.

	return a.inferReturnType(def.Return, focus)
}

// walkArgsOpaque analyzes call arguments purely for their own diagnostics
// when the callee itself is unknown, without attempting signature matching.
func (a *Analyzer) walkArgsOpaque(ctx context.Context, args []parser.Node, s scope, res *Result) {
	for _, arg := range args {
		a.walk(ctx, arg, s, res)
	}
}

// checkArity implements the `InvalidArity` half of rule 3.
func (a *Analyzer) checkArity(name string, min, max, got int, span diagnostic.Span, res *Result) {
	if got < min || (max >= 0 && got > max) {
		a.diag(res, diagnostic.Errorf(diagnostic.CodeInvalidArity,
			"%s: expected %s argument(s), got %d", name, arityRange(min, max), got).At(span).Build())
	}
}

func arityRange(min, max int) string {
	if max < 0 {
		return fmt.Sprintf("at least %d", min)
	}
	if min == max {
		return fmt.Sprintf("%d", min)
	}
	return fmt.Sprintf("%d-%d", min, max)
}

// checkArgumentTypes implements rule 3's positional unification: each
// argument's analyzed type is checked against its declared parameter type,
// allowing the two coercions spec.md names (single<->collection is free
// since this analyzer tracks cardinality separately from type; Integer->
// Decimal is the only numeric widening permitted). Lambda parameters are
// analyzed with focus narrowed to the element type the lambda body sees
// ($this), per spec.md 4.8's evaluator contract the analyzer mirrors ahead
// of time.
func (a *Analyzer) checkArgumentTypes(ctx context.Context, def registry.FuncDef, focus Annotation, args []parser.Node, span diagnostic.Span, s scope, res *Result) {
	for i, arg := range args {
		var param registry.Param
		switch {
		case i < len(def.Params):
			param = def.Params[i]
		case def.MaxArity() < 0 && len(def.Params) > 0:
			param = def.Params[len(def.Params)-1]
		default:
			// Extra argument beyond the signature; checkArity already
			// reported InvalidArity, nothing further to unify.
			a.walk(ctx, arg, s, res)
			continue
		}
		argScope := s
		if param.Lambda {
			argScope = scope{focus: focus}
		}
		argAnn := a.walk(ctx, arg, argScope, res)
		if !param.Lambda && param.Type.Name != "Any" && argAnn.Confidence == ConfidenceExact {
			if !typeUnifies(argAnn, param.Type) {
				a.diag(res, diagnostic.Errorf(diagnostic.CodeInvalidArgumentTypes,
					"%s: argument %d (%s) does not match expected type %s", def.Name, i+1, param.Name, param.Type).At(arg.Span()).Build())
			}
		}
	}
}

// typeUnifies reports whether ann's candidate types can serve as param,
// allowing the Integer->Decimal numeric widening spec.md 4.7 names.
func typeUnifies(ann Annotation, param value.TypeSpecifier) bool {
	for _, t := range ann.Types {
		if t.Name == param.Name {
			return true
		}
		if param.Name == "Decimal" && t.Name == "Integer" {
			return true
		}
	}
	return false
}

func (a *Analyzer) inferReturnType(ret value.TypeSpecifier, focus Annotation) Annotation {
	if ret.Name == "Any" {
		return Annotation{Types: focus.Types, Cardinality: CardZeroMany, Confidence: focus.Confidence}
	}
	return exact(ret, CardZeroOne)
}

// walkTypeFunction implements rule 2: is(T)/as(T)/ofType(T) constrain or
// narrow the post-step type to T.
func (a *Analyzer) walkTypeFunction(ctx context.Context, name string, focus Annotation, args []parser.Node, span diagnostic.Span, s scope, res *Result) Annotation {
	if len(args) != 1 {
		a.diag(res, diagnostic.Errorf(diagnostic.CodeInvalidArity, "%s: expected 1 argument, got %d", name, len(args)).At(span).Build())
		return unknownAnnotation()
	}
	ts, ok := typeSpecifierFromArg(args[0])
	if !ok {
		return unknownAnnotation()
	}
	switch name {
	case "is":
		return exact(value.TypeSpecifier{Namespace: "System", Name: "Boolean"}, CardOneOne)
	case "as":
		return Annotation{Types: []value.TypeSpecifier{ts}, Cardinality: CardZeroOne, Confidence: focus.Confidence}
	default: // ofType
		return Annotation{Types: []value.TypeSpecifier{ts}, Cardinality: CardZeroMany, Confidence: focus.Confidence}
	}
}

func typeSpecifierFromArg(node parser.Node) (value.TypeSpecifier, bool) {
	switch n := node.(type) {
	case parser.Identifier:
		return value.TypeSpecifier{Name: n.Name}, true
	case parser.MethodCall:
		if n.IsCall {
			return value.TypeSpecifier{}, false
		}
		if target, ok := n.Target.(parser.Identifier); ok {
			return value.TypeSpecifier{Namespace: target.Name, Name: n.Name}, true
		}
	}
	return value.TypeSpecifier{}, false
}

// walkResolve implements rule 4: resolve() against a Reference targets the
// union of types declared in the schema's reference constraint.
func (a *Analyzer) walkResolve(ctx context.Context, focus Annotation, span diagnostic.Span, res *Result) Annotation {
	if !focus.HasType("Reference") || a.provider == nil {
		return unknownAnnotation()
	}
	types, err := a.provider.GetCollectionElementTypes(ctx, "Reference", "target")
	if err != nil || len(types) == 0 {
		return unknownAnnotation()
	}
	var specs []value.TypeSpecifier
	for _, t := range types {
		qn, ok := t.QualifiedName()
		if ok {
			specs = append(specs, qn)
		}
	}
	return Annotation{Types: specs, Cardinality: CardZeroOne, Confidence: ConfidenceInferred}
}

// walkChildren implements rule 5: children() returns a union over all
// element types of the focus type.
func (a *Analyzer) walkChildren(ctx context.Context, focus Annotation, span diagnostic.Span, res *Result) Annotation {
	if a.provider == nil || focus.Confidence == ConfidenceUnknown {
		return unknownAnnotation()
	}
	var types []value.TypeSpecifier
	for _, t := range focus.Types {
		names, err := a.provider.GetElementNames(ctx, t.Name)
		if err != nil {
			continue
		}
		for _, name := range names {
			ti, ok, err := a.provider.GetElementType(ctx, t.Name, name)
			if err != nil || !ok {
				continue
			}
			if qn, ok := ti.QualifiedName(); ok {
				types = append(types, qn)
			}
		}
	}
	return Annotation{Types: dedupeTypeSpecifiers(types), Cardinality: CardZeroMany, Confidence: ConfidenceInferred}
}
