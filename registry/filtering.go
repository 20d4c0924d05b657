package registry

import (
	"context"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerFiltering adds where/select/repeat, adapted from the teacher's
// fhirpath/functions.go entries of the same name.
func registerFiltering(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "where", Return: anyType, Category: CategoryFiltering, Pure: true,
			Params: []Param{{Name: "criteria", Type: anyType, Lambda: true}},
			Doc:    "Elements of the input collection for which criteria evaluates to true."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("where", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			return filterByCriteria(ctx, ec, focus, args[0])
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "select", Return: anyType, Category: CategoryFiltering, Pure: true,
			Params: []Param{{Name: "projection", Type: anyType, Lambda: true}},
			Doc:    "Evaluates projection once per element and flattens the results."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("select", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			var result value.Collection
			for i, elem := range focus {
				child := ec.WithScope(elem, i, nil)
				projected, err := child.Eval(ctx, args[0], value.Singleton(elem))
				if err != nil {
					return nil, err
				}
				result = append(result, projected...)
			}
			return result, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "repeat", Return: anyType, Category: CategoryFiltering, Pure: true,
			Params: []Param{{Name: "projection", Type: anyType, Lambda: true}},
			Doc:    "Repeatedly applies projection, accumulating newly reached elements until no new ones appear."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("repeat", args, 1, 1); err != nil {
				return nil, err
			}
			var result value.Collection
			frontier := focus
			for len(frontier) > 0 {
				var next value.Collection
				for i, elem := range frontier {
					child := ec.WithScope(elem, i, nil)
					projected, err := child.Eval(ctx, args[0], value.Singleton(elem))
					if err != nil {
						return nil, err
					}
					for _, p := range projected {
						if !result.Contains(p) && !next.Contains(p) {
							next = append(next, p)
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
}
