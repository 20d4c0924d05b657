package registry

import (
	"context"
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerMathFuncs adds the Math category, adapted from the teacher's
// fhirpath/functions.go entries of the same name, using apd.Context the
// way value.Decimal itself does (value.APDContext).
func registerMathFuncs(r *Registry) {
	unaryDecimal := func(name, doc string, f func(apdCtx *apd.Context, d *apd.Decimal) (*apd.Decimal, error)) {
		r.Register(FuncDef{
			Signature: Signature{Name: name, Return: decType(), Category: CategoryMath, Pure: true, Doc: doc},
			Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
				if err := requireArity(name, args, 0, 0); err != nil {
					return nil, err
				}
				if len(focus) == 0 {
					return nil, nil
				}
				d, err := toDecimalOperand(focus, name)
				if err != nil {
					return nil, err
				}
				res, err := f(value.APDContext(ctx), d)
				if err == errEmptyResult {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				return value.Collection{value.Decimal{Value: res}}, nil
			},
		})
	}

	r.Register(FuncDef{
		Signature: Signature{Name: "abs", Return: anyType, Category: CategoryMath, Pure: true,
			Doc: "Absolute value; preserves Integer/Decimal/Quantity type."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("abs", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			if i, ok, _ := singleton[value.Integer](focus); ok {
				if i < 0 {
					i = -i
				}
				return value.Collection{i}, nil
			}
			if q, ok, _ := singleton[value.Quantity](focus); ok {
				var abs apd.Decimal
				abs.Abs(q.Value.Value)
				return value.Collection{value.Quantity{Value: value.Decimal{Value: &abs}, Unit: q.Unit}}, nil
			}
			d, err := toDecimalOperand(focus, "abs")
			if err != nil {
				return nil, err
			}
			var abs apd.Decimal
			abs.Abs(d)
			return value.Collection{value.Decimal{Value: &abs}}, nil
		},
	})

	unaryDecimal("ceiling", "Smallest integer value >= the input.", func(apdCtx *apd.Context, d *apd.Decimal) (*apd.Decimal, error) {
		var r apd.Decimal
		_, err := apdCtx.Ceil(&r, d)
		return &r, err
	})
	unaryDecimal("floor", "Largest integer value <= the input.", func(apdCtx *apd.Context, d *apd.Decimal) (*apd.Decimal, error) {
		var r apd.Decimal
		_, err := apdCtx.Floor(&r, d)
		return &r, err
	})
	unaryDecimal("truncate", "Integer part of the input, discarding any fraction.", func(apdCtx *apd.Context, d *apd.Decimal) (*apd.Decimal, error) {
		var r apd.Decimal
		var err error
		if d.Negative {
			_, err = apdCtx.Ceil(&r, d)
		} else {
			_, err = apdCtx.Floor(&r, d)
		}
		return &r, err
	})
	unaryDecimal("exp", "e raised to the power of the input.", func(apdCtx *apd.Context, d *apd.Decimal) (*apd.Decimal, error) {
		var r apd.Decimal
		_, err := apdCtx.Exp(&r, d)
		return &r, err
	})
	unaryDecimal("ln", "Natural logarithm of the input.", func(apdCtx *apd.Context, d *apd.Decimal) (*apd.Decimal, error) {
		var r apd.Decimal
		_, err := apdCtx.Ln(&r, d)
		return &r, err
	})
	unaryDecimal("sqrt", "Square root of the input; empty for negative operands.", func(apdCtx *apd.Context, d *apd.Decimal) (*apd.Decimal, error) {
		if d.Negative {
			return nil, errEmptyResult
		}
		var r apd.Decimal
		_, err := apdCtx.Sqrt(&r, d)
		return &r, err
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "round", Return: decType(), Category: CategoryMath, Pure: true,
			Params: []Param{{Name: "precision", Type: intType(), Optional: true}},
			Doc:    "Rounds to precision decimal places (default 0), half-up."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("round", args, 0, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			d, err := toDecimalOperand(focus, "round")
			if err != nil {
				return nil, err
			}
			places := int64(0)
			if len(args) == 1 {
				n, err := evalIntArg(ctx, ec, focus, args[0])
				if err != nil {
					return nil, err
				}
				if n < 0 {
					return nil, fmt.Errorf("round: precision must be >= 0")
				}
				places = int64(n)
			}
			apdCtx := value.APDContext(ctx).WithPrecision(uint32(d.NumDigits() + places))
			var rounded apd.Decimal
			if _, err := apdCtx.Quantize(&rounded, d, int32(-places)); err != nil {
				return nil, err
			}
			return value.Collection{value.Decimal{Value: &rounded}}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "power", Return: decType(), Category: CategoryMath, Pure: true,
			Params: []Param{{Name: "exponent", Type: decType()}},
			Doc:    "Raises the input to exponent; empty for a negative base."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("power", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			d, err := toDecimalOperand(focus, "power")
			if err != nil {
				return nil, err
			}
			if d.Negative {
				return nil, nil
			}
			expCol, err := ec.Eval(ctx, args[0], focus)
			if err != nil {
				return nil, err
			}
			exp, err := toDecimalOperand(expCol, "power")
			if err != nil {
				return nil, err
			}
			var r apd.Decimal
			if _, err := value.APDContext(ctx).Pow(&r, d, exp); err != nil {
				return nil, err
			}
			return value.Collection{value.Decimal{Value: &r}}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "log", Return: decType(), Category: CategoryMath, Pure: true,
			Params: []Param{{Name: "base", Type: decType()}},
			Doc:    "log_base(input), computed as ln(input) / ln(base)."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("log", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			d, err := toDecimalOperand(focus, "log")
			if err != nil {
				return nil, err
			}
			baseCol, err := ec.Eval(ctx, args[0], focus)
			if err != nil {
				return nil, err
			}
			base, err := toDecimalOperand(baseCol, "log")
			if err != nil {
				return nil, err
			}
			apdCtx := value.APDContext(ctx)
			var lnX, lnBase, r apd.Decimal
			if _, err := apdCtx.Ln(&lnX, d); err != nil {
				return nil, err
			}
			if _, err := apdCtx.Ln(&lnBase, base); err != nil {
				return nil, err
			}
			if _, err := apdCtx.Quo(&r, &lnX, &lnBase); err != nil {
				return nil, err
			}
			return value.Collection{value.Decimal{Value: &r}}, nil
		},
	})
}

var errEmptyResult = fmt.Errorf("empty result")

func toDecimalOperand(focus value.Collection, fn string) (*apd.Decimal, error) {
	d, ok, err := singleton[value.Decimal](focus)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: expected a numeric operand", fn)
	}
	return d.Value, nil
}
