package registry

import (
	"context"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerAggregate adds aggregate(), adapted from the teacher's
// fhirpath/functions.go entry of the same name.
func registerAggregate(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "aggregate", Return: anyType, Category: CategoryAggregate, Pure: true,
			Params: []Param{
				{Name: "aggregator", Type: anyType, Lambda: true},
				{Name: "init", Type: anyType, Optional: true},
			},
			Doc: "Folds aggregator over the input collection; $total starts at init (or empty) and $this/$index track the current element."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("aggregate", args, 1, 2); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			var total value.Collection
			if len(args) == 2 {
				init, err := ec.Eval(ctx, args[1], ec.Root())
				if err != nil {
					return nil, err
				}
				total = init
			}
			for i, elem := range focus {
				child := ec.WithScope(elem, i, total)
				next, err := child.Eval(ctx, args[0], value.Singleton(elem))
				if err != nil {
					return nil, err
				}
				total = next
			}
			return total, nil
		},
	})
}
