package registry

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerSubsetting adds single/first/last/tail/skip/take/intersect/
// exclude, adapted from the teacher's fhirpath/functions.go entries of the
// same name.
func registerSubsetting(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "single", Return: anyType, Category: CategorySubsetting, Pure: true,
			Doc: "The sole element of a 1-element collection; error if more than one, empty if none."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("single", args, 0, 0); err != nil {
				return nil, err
			}
			switch len(focus) {
			case 0:
				return nil, nil
			case 1:
				return focus, nil
			default:
				return nil, fmt.Errorf("single(): expected at most one element, got %d", len(focus))
			}
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "first", Return: anyType, Category: CategorySubsetting, Pure: true,
			Doc: "The first element of the input collection, or empty."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("first", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			return focus[:1], nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "last", Return: anyType, Category: CategorySubsetting, Pure: true,
			Doc: "The last element of the input collection, or empty."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("last", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			return focus[len(focus)-1:], nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "tail", Return: anyType, Category: CategorySubsetting, Pure: true,
			Doc: "All elements except the first."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("tail", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) <= 1 {
				return nil, nil
			}
			return focus[1:], nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "skip", Return: anyType, Category: CategorySubsetting, Pure: true,
			Params: []Param{{Name: "num", Type: intType()}},
			Doc:    "All elements after skipping the first num."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("skip", args, 1, 1); err != nil {
				return nil, err
			}
			n, err := evalIntArg(ctx, ec, focus, args[0])
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return focus, nil
			}
			if n >= len(focus) {
				return nil, nil
			}
			return focus[n:], nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "take", Return: anyType, Category: CategorySubsetting, Pure: true,
			Params: []Param{{Name: "num", Type: intType()}},
			Doc:    "The first num elements."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("take", args, 1, 1); err != nil {
				return nil, err
			}
			n, err := evalIntArg(ctx, ec, focus, args[0])
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, nil
			}
			if n >= len(focus) {
				return focus, nil
			}
			return focus[:n], nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "intersect", Return: anyType, Category: CategorySubsetting, Pure: true,
			Params: []Param{{Name: "other", Type: anyType}},
			Doc:    "Elements present in both collections, deduplicated."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("intersect", args, 1, 1); err != nil {
				return nil, err
			}
			other, err := ec.Eval(ctx, args[0], ec.Root())
			if err != nil {
				return nil, err
			}
			var result value.Collection
			for _, e := range focus {
				if other.Contains(e) && !result.Contains(e) {
					result = append(result, e)
				}
			}
			return result, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "exclude", Return: anyType, Category: CategorySubsetting, Pure: true,
			Params: []Param{{Name: "other", Type: anyType}},
			Doc:    "Elements of the input collection not present in other."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("exclude", args, 1, 1); err != nil {
				return nil, err
			}
			other, err := ec.Eval(ctx, args[0], ec.Root())
			if err != nil {
				return nil, err
			}
			var result value.Collection
			for _, e := range focus {
				if !other.Contains(e) {
					result = append(result, e)
				}
			}
			return result, nil
		},
	})
}

func evalIntArg(ctx context.Context, ec EvalContext, focus value.Collection, arg parser.Node) (int, error) {
	res, err := ec.Eval(ctx, arg, focus)
	if err != nil {
		return 0, err
	}
	n, ok, err := singleton[value.Integer](res)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("expected a single Integer argument")
	}
	return int(n), nil
}
