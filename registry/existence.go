package registry

import (
	"context"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerExistence adds the cardinality/existence predicates, adapted
// from the teacher's "empty"/"exists"/"all"/"allTrue"/... entries in
// fhirpath/functions.go.
func registerExistence(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "empty", Return: boolType(), Category: CategoryExistence, Pure: true,
			Doc: "True if the input collection has no elements."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("empty", args, 0, 0); err != nil {
				return nil, err
			}
			return value.Collection{value.Boolean(len(focus) == 0)}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "exists", Return: boolType(), Category: CategoryExistence, Pure: true,
			Params: []Param{{Name: "criteria", Type: anyType, Optional: true, Lambda: true}},
			Doc:    "True if the input collection (optionally filtered by criteria) has at least one element."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("exists", args, 0, 1); err != nil {
				return nil, err
			}
			if len(args) == 0 {
				return value.Collection{value.Boolean(len(focus) > 0)}, nil
			}
			filtered, err := filterByCriteria(ctx, ec, focus, args[0])
			if err != nil {
				return nil, err
			}
			return value.Collection{value.Boolean(len(filtered) > 0)}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "all", Return: boolType(), Category: CategoryExistence, Pure: true,
			Params: []Param{{Name: "criteria", Type: anyType, Lambda: true}},
			Doc:    "True if criteria evaluates to true for every element (vacuously true on empty input)."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("all", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return value.Collection{value.Boolean(true)}, nil
			}
			for i, elem := range focus {
				child := ec.WithScope(elem, i, nil)
				res, err := child.Eval(ctx, args[0], value.Singleton(elem))
				if err != nil {
					return nil, err
				}
				b, ok, err := singleton[value.Boolean](res)
				if err != nil {
					return nil, err
				}
				if !ok || !bool(b) {
					return value.Collection{value.Boolean(false)}, nil
				}
			}
			return value.Collection{value.Boolean(true)}, nil
		},
	})

	registerAllAnyTrue(r, "allTrue", true, true)
	registerAllAnyTrue(r, "anyTrue", true, false)
	registerAllAnyTrue(r, "allFalse", false, true)
	registerAllAnyTrue(r, "anyFalse", false, false)

	r.Register(FuncDef{
		Signature: Signature{Name: "count", Return: intType(), Category: CategoryExistence, Pure: true,
			Doc: "Number of elements in the input collection."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("count", args, 0, 0); err != nil {
				return nil, err
			}
			return value.Collection{value.Integer(len(focus))}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "distinct", Return: anyType, Category: CategoryExistence, Pure: true,
			Doc: "The input collection with duplicate elements (by =) removed, preserving first-occurrence order."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("distinct", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			var result value.Collection
			for _, elem := range focus {
				found := false
				for _, kept := range result {
					if eq, ok := elem.Equal(kept); ok && eq {
						found = true
						break
					}
				}
				if !found {
					result = append(result, elem)
				}
			}
			return result, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "isDistinct", Return: boolType(), Category: CategoryExistence, Pure: true,
			Doc: "True if no two elements of the input collection are equal."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("isDistinct", args, 0, 0); err != nil {
				return nil, err
			}
			for i := 0; i < len(focus); i++ {
				for j := i + 1; j < len(focus); j++ {
					if eq, ok := focus[i].Equal(focus[j]); ok && eq {
						return value.Collection{value.Boolean(false)}, nil
					}
				}
			}
			return value.Collection{value.Boolean(true)}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "subsetOf", Return: boolType(), Category: CategoryExistence, Pure: true,
			Params: []Param{{Name: "other", Type: anyType}},
			Doc:    "True if every element of the input collection is in other."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("subsetOf", args, 1, 1); err != nil {
				return nil, err
			}
			other, err := ec.Eval(ctx, args[0], ec.Root())
			if err != nil {
				return nil, err
			}
			for _, e := range focus {
				if !other.Contains(e) {
					return value.Collection{value.Boolean(false)}, nil
				}
			}
			return value.Collection{value.Boolean(true)}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "supersetOf", Return: boolType(), Category: CategoryExistence, Pure: true,
			Params: []Param{{Name: "other", Type: anyType}},
			Doc:    "True if every element of other is in the input collection."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("supersetOf", args, 1, 1); err != nil {
				return nil, err
			}
			other, err := ec.Eval(ctx, args[0], ec.Root())
			if err != nil {
				return nil, err
			}
			for _, e := range other {
				if !focus.Contains(e) {
					return value.Collection{value.Boolean(false)}, nil
				}
			}
			return value.Collection{value.Boolean(true)}, nil
		},
	})
}

func registerAllAnyTrue(r *Registry, name string, want, requireAll bool) {
	r.Register(FuncDef{
		Signature: Signature{Name: name, Return: boolType(), Category: CategoryExistence, Pure: true,
			Doc: "Boolean aggregate over the input collection's own Boolean values."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity(name, args, 0, 0); err != nil {
				return nil, err
			}
			for _, e := range focus {
				b, ok, err := singleton[value.Boolean](value.Singleton(e))
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				if requireAll {
					if bool(b) != want {
						return value.Collection{value.Boolean(false)}, nil
					}
				} else if bool(b) == want {
					return value.Collection{value.Boolean(true)}, nil
				}
			}
			return value.Collection{value.Boolean(requireAll)}, nil
		},
	})
}

// filterByCriteria evaluates criteria once per element of focus with $this
// bound, returning the elements for which it is true. Shared by exists(),
// where() and count()-with-predicate-style callers.
func filterByCriteria(ctx context.Context, ec EvalContext, focus value.Collection, criteria parser.Node) (value.Collection, error) {
	var kept value.Collection
	for i, elem := range focus {
		child := ec.WithScope(elem, i, nil)
		res, err := child.Eval(ctx, criteria, value.Singleton(elem))
		if err != nil {
			return nil, err
		}
		b, ok, err := singleton[value.Boolean](res)
		if err != nil {
			return nil, err
		}
		if ok && bool(b) {
			kept = append(kept, elem)
		}
	}
	return kept, nil
}
