package registry

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerBoundaryFuncs adds lowBoundary/highBoundary, adapted from the
// teacher's fhirpath/functions.go entries of the same name: an optional
// Integer precision argument, dispatched by the type of the single input
// element across Decimal, Quantity, Date, DateTime, and Time, in that
// order.
func registerBoundaryFuncs(r *Registry) {
	register := func(name string, useUpper bool) {
		r.Register(FuncDef{
			Signature: Signature{Name: name, Return: anyType, Category: CategoryMath, Pure: true,
				Params: []Param{{Name: "precision", Type: intType(), Optional: true}},
				Doc:    "The " + boundaryWord(useUpper) + " value consistent with the input's own precision, widened out to precision digits when given."},
			Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
				if err := requireArity(name, args, 0, 1); err != nil {
					return nil, err
				}
				if len(focus) == 0 {
					return nil, nil
				}
				if len(focus) > 1 {
					return nil, fmt.Errorf("%s: input collection must have 0 or 1 items", name)
				}
				var precision *int
				if len(args) == 1 {
					n, err := evalIntArg(ctx, ec, focus, args[0])
					if err != nil {
						return nil, fmt.Errorf("%s: expected integer precision parameter", name)
					}
					precision = &n
				}
				return boundaryOf(ctx, name, focus[0], precision, useUpper)
			},
		})
	}
	register("lowBoundary", false)
	register("highBoundary", true)
}

func boundaryWord(useUpper bool) string {
	if useUpper {
		return "highest"
	}
	return "lowest"
}

func boundaryOf(ctx context.Context, name string, e value.Element, precision *int, useUpper bool) (value.Collection, error) {
	switch v := e.(type) {
	case value.Decimal:
		d, ok, err := decimalBoundary(ctx, v, precision, useUpper)
		if err != nil || !ok {
			return nil, err
		}
		return value.Collection{d}, nil
	case value.Quantity:
		d, ok, err := decimalBoundary(ctx, v.Value, precision, useUpper)
		if err != nil || !ok {
			return nil, err
		}
		return value.Collection{value.Quantity{Value: d, Unit: v.Unit}}, nil
	case value.Date:
		if useUpper {
			d, ok := v.HighBoundary(precision)
			if !ok {
				return nil, nil
			}
			return value.Collection{d}, nil
		}
		d, ok := v.LowBoundary(precision)
		if !ok {
			return nil, nil
		}
		return value.Collection{d}, nil
	case value.DateTime:
		if useUpper {
			d, ok := v.HighBoundary(precision)
			if !ok {
				return nil, nil
			}
			return value.Collection{d}, nil
		}
		d, ok := v.LowBoundary(precision)
		if !ok {
			return nil, nil
		}
		return value.Collection{d}, nil
	case value.Time:
		if useUpper {
			d, ok := v.HighBoundary(precision)
			if !ok {
				return nil, nil
			}
			return value.Collection{d}, nil
		}
		d, ok := v.LowBoundary(precision)
		if !ok {
			return nil, nil
		}
		return value.Collection{d}, nil
	default:
		return nil, fmt.Errorf("%s: expected Decimal, Quantity, Date, DateTime, or Time but got %T", name, e)
	}
}

// decimalBoundary clamps precision to [0,31] (Empty if out of range, per
// the teacher's function-table convention) before delegating to
// value.Decimal's own boundary method.
func decimalBoundary(ctx context.Context, d value.Decimal, precision *int, useUpper bool) (value.Decimal, bool, error) {
	if precision != nil && (*precision < 0 || *precision > 31) {
		return value.Decimal{}, false, nil
	}
	var (
		out value.Decimal
		err error
	)
	if useUpper {
		out, err = d.HighBoundary(ctx, precision)
	} else {
		out, err = d.LowBoundary(ctx, precision)
	}
	if err != nil {
		return value.Decimal{}, false, err
	}
	return out, true, nil
}
