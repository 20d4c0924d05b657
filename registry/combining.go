package registry

import (
	"context"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerCombining adds union/combine/coalesce, adapted from the
// teacher's fhirpath/functions.go entries of the same name.
func registerCombining(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "union", Return: anyType, Category: CategoryCombining, Pure: true,
			Params: []Param{{Name: "other", Type: anyType}},
			Doc:    "Set union with other, deduplicated by =, same as the `|` operator."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("union", args, 1, 1); err != nil {
				return nil, err
			}
			other, err := ec.Eval(ctx, args[0], ec.Root())
			if err != nil {
				return nil, err
			}
			return focus.Union(other), nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "combine", Return: anyType, Category: CategoryCombining, Pure: true,
			Params: []Param{{Name: "other", Type: anyType}},
			Doc:    "Concatenation with other, without removing duplicates."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("combine", args, 1, 1); err != nil {
				return nil, err
			}
			other, err := ec.Eval(ctx, args[0], ec.Root())
			if err != nil {
				return nil, err
			}
			return focus.Combine(other), nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "coalesce", Return: anyType, Category: CategoryCombining, Pure: true,
			Params: []Param{{Name: "values", Type: anyType, Variadic: true}},
			Doc:    "The input collection when it is non-empty, otherwise the first non-empty argument collection, or empty if all are empty."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if len(focus) > 0 {
				return focus, nil
			}
			for _, a := range args {
				res, err := ec.Eval(ctx, a, ec.Root())
				if err != nil {
					return nil, err
				}
				if len(res) > 0 {
					return res, nil
				}
			}
			return nil, nil
		},
	})
}
