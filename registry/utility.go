package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerUtility adds iif/trace/children/descendants/defineVariable/
// hasValue/getValue/resolve, adapted from the teacher's fhirpath/
// functions.go entries of the same name.
func registerUtility(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "iif", Return: anyType, Category: CategoryUtility, Pure: true,
			Params: []Param{
				{Name: "criterion", Type: boolType(), Lambda: true},
				{Name: "trueResult", Type: anyType, Lambda: true},
				{Name: "otherwiseResult", Type: anyType, Optional: true, Lambda: true},
			},
			Doc: "Evaluates criterion with $this bound to the input; only the taken branch is evaluated."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("iif", args, 2, 3); err != nil {
				return nil, err
			}
			if len(focus) > 1 {
				return nil, fmt.Errorf("iif(): input collection must have 0 or 1 items")
			}
			scope := ec
			if len(focus) == 1 {
				scope = ec.WithScope(focus[0], 0, focus)
			}
			cond, err := scope.Eval(ctx, args[0], focus)
			if err != nil {
				return nil, err
			}
			b, ok, err := singleton[value.Boolean](cond)
			if err != nil {
				return nil, err
			}
			if ok && bool(b) {
				return scope.Eval(ctx, args[1], focus)
			}
			if len(args) == 3 {
				return scope.Eval(ctx, args[2], focus)
			}
			return nil, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "trace", Return: anyType, Category: CategoryUtility,
			Params: []Param{{Name: "name", Type: strType()}, {Name: "projection", Type: anyType, Optional: true, Lambda: true}},
			Doc:    "Logs the (optionally projected) input collection under name and returns the input unchanged."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("trace", args, 1, 2); err != nil {
				return nil, err
			}
			// Tracing is a side effect the integration facade (C9) wires to a
			// Logger; the registry itself has no logging dependency, so this
			// is a structural no-op that still evaluates and discards the
			// projection argument for side effects.
			if len(args) == 2 {
				if _, err := ec.Eval(ctx, args[1], focus); err != nil {
					return nil, err
				}
			}
			return focus, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "children", Return: anyType, Category: CategoryUtility, Pure: true,
			Doc: "All immediate child elements of every input element."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("children", args, 0, 0); err != nil {
				return nil, err
			}
			var result value.Collection
			for _, e := range focus {
				result = append(result, e.Children()...)
			}
			return result, nil
		},
	})

	r.Register(FuncDef{
		// descendants() is repeat(children()) unrolled; Open Question in
		// spec.md resolves conservatively: it does not cross Reference
		// boundaries (no resolve() call here).
		Signature: Signature{Name: "descendants", Return: anyType, Category: CategoryUtility, Pure: true,
			Doc: "All descendant elements (children, recursively), not crossing Reference boundaries."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("descendants", args, 0, 0); err != nil {
				return nil, err
			}
			var result value.Collection
			frontier := focus
			for len(frontier) > 0 {
				var next value.Collection
				for _, e := range frontier {
					for _, child := range e.Children() {
						seen := false
						for _, r := range result {
							if eq, ok := r.Equal(child); ok && eq {
								seen = true
								break
							}
						}
						if !seen {
							next = append(next, child)
						}
					}
				}
				result = append(result, next...)
				if err := ec.CheckCollectionSize(ctx, len(result)); err != nil {
					return nil, err
				}
				frontier = next
			}
			return result, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "defineVariable", Return: anyType, Category: CategoryUtility, Pure: true,
			Params: []Param{{Name: "name", Type: strType()}, {Name: "value", Type: anyType, Optional: true}},
			Doc:    "Binds %name to value (or the input collection) for the remainder of the enclosing expression; returns the input unchanged."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("defineVariable", args, 1, 2); err != nil {
				return nil, err
			}
			nameCol, err := ec.Eval(ctx, args[0], focus)
			if err != nil {
				return nil, err
			}
			name, ok, err := singleton[value.String](nameCol)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("defineVariable(): expected a string name")
			}
			bound := focus
			if len(args) == 2 {
				bound, err = ec.Eval(ctx, args[1], focus)
				if err != nil {
					return nil, err
				}
			}
			// The evaluator threads the child EvalContext returned by
			// WithVariable back into the caller's scope for the rest of the
			// enclosing expression; this function's own return value is the
			// unchanged input, per FHIRPath's defineVariable() contract.
			_ = ec.WithVariable(string(name), bound)
			return focus, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "hasValue", Return: boolType(), Category: CategoryUtility, Pure: true,
			Doc: "True if the single input element is a primitive with a value (not a complex/resource node)."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("hasValue", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) != 1 {
				return nil, nil
			}
			return value.Collection{value.Boolean(isPrimitiveElement(focus[0]))}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "getValue", Return: anyType, Category: CategoryUtility, Pure: true,
			Doc: "The underlying System primitive value of a single FHIR primitive input, or empty."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("getValue", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) != 1 || !isPrimitiveElement(focus[0]) {
				return nil, nil
			}
			return focus, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "resolve", Return: anyType, Category: CategoryUtility, Pure: true,
			Doc: "Resolves each input Reference against the current evaluation root; empty for a target not present there. No network I/O is performed."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("resolve", args, 0, 0); err != nil {
				return nil, err
			}
			var result value.Collection
			for _, e := range focus {
				refStr, ok, err := singleton[value.String](e.Children("reference"))
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				if target, found := resolveLocalReference(ec.Root(), string(refStr)); found {
					result = append(result, target)
				}
			}
			return result, nil
		},
	})
}

// resolveLocalReference searches root — the resource (or Bundle) the
// expression was evaluated against — for a resource matching ref
// ("ResourceType/id"), recursing into Bundle.entry.resource. It never
// performs network I/O or consults an external resolver, per spec.md's
// resolve() contract: a reference outside the evaluation root resolves to
// Empty rather than fetching it.
func resolveLocalReference(root value.Collection, ref string) (value.Element, bool) {
	resourceType, id, ok := splitReference(ref)
	if !ok {
		return nil, false
	}
	for _, e := range root {
		if found, ok := matchResource(e, resourceType, id); ok {
			return found, true
		}
	}
	return nil, false
}

func matchResource(e value.Element, resourceType, id string) (value.Element, bool) {
	if qn, ok := e.TypeInfo().QualifiedName(); ok && qn.Name == resourceType {
		if idStr, ok, _ := singleton[value.String](e.Children("id")); ok && string(idStr) == id {
			return e, true
		}
	}
	for _, entry := range e.Children("entry") {
		for _, res := range entry.Children("resource") {
			if found, ok := matchResource(res, resourceType, id); ok {
				return found, true
			}
		}
	}
	return nil, false
}

func splitReference(ref string) (resourceType, id string, ok bool) {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// isPrimitiveElement reports whether e is one of the closed sum type's
// scalar variants rather than a structured (model-provider-backed)
// Resource/BackboneElement node.
func isPrimitiveElement(e value.Element) bool {
	switch e.(type) {
	case value.Boolean, value.String, value.Integer, value.Long, value.Decimal,
		value.Date, value.Time, value.DateTime, value.Quantity:
		return true
	default:
		return false
	}
}
