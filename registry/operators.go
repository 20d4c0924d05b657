package registry

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/value"
)

// BinaryFunc evaluates one infix operator over already-evaluated operand
// collections. Unlike Func, operators are not looked up by callable name —
// the evaluator (C8) dispatches BinaryOp/UnaryOp AST nodes to these directly
// via EvalBinaryOp/EvalUnaryOp, mirroring how the teacher's evaluator has a
// separate switch for operators versus its funcs map.
type BinaryFunc func(ctx context.Context, ec EvalContext, left, right value.Collection) (value.Collection, error)

// UnaryFunc evaluates one prefix operator.
type UnaryFunc func(ctx context.Context, ec EvalContext, operand value.Collection) (value.Collection, error)

var binaryOps = map[string]BinaryFunc{
	"|": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Union(r), nil
	},
	"&": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Concat(r)
	},
	"+": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Add(ctx, r)
	},
	"-": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Subtract(ctx, r)
	},
	"*": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Multiply(ctx, r)
	},
	"/": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Divide(ctx, r)
	},
	"div": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Div(ctx, r)
	},
	"mod": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return l.Mod(ctx, r)
	},
	"=": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return equalityResult(l.Equal(r)), nil
	},
	"!=": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return negateEquality(l.Equal(r)), nil
	},
	"~": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return value.Collection{value.Boolean(l.Equivalent(r))}, nil
	},
	"!~": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return value.Collection{value.Boolean(!l.Equivalent(r))}, nil
	},
	"<":  comparisonOp(func(c int) bool { return c < 0 }),
	"<=": comparisonOp(func(c int) bool { return c <= 0 }),
	">":  comparisonOp(func(c int) bool { return c > 0 }),
	">=": comparisonOp(func(c int) bool { return c >= 0 }),
	"and": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return value.And(l, r), nil
	},
	"or": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return value.Or(l, r), nil
	},
	"xor": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return value.Xor(l, r), nil
	},
	"implies": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		return value.Implies(l, r), nil
	},
	"in": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		if len(l) == 0 || len(r) == 0 {
			return nil, nil
		}
		if len(l) != 1 {
			return nil, fmt.Errorf("`in`: left operand must be a single value")
		}
		return value.Collection{value.Boolean(r.Contains(l[0]))}, nil
	},
	"contains": func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		if len(l) == 0 || len(r) == 0 {
			return nil, nil
		}
		if len(r) != 1 {
			return nil, fmt.Errorf("`contains`: right operand must be a single value")
		}
		return value.Collection{value.Boolean(l.Contains(r[0]))}, nil
	},
}

// EvalBinaryOp looks up and applies the infix operator named op.
func EvalBinaryOp(ctx context.Context, ec EvalContext, op string, left, right value.Collection) (value.Collection, error) {
	f, ok := binaryOps[op]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", op)
	}
	return f(ctx, ec, left, right)
}

var unaryOps = map[string]UnaryFunc{
	"+": func(ctx context.Context, ec EvalContext, v value.Collection) (value.Collection, error) {
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	},
	"-": func(ctx context.Context, ec EvalContext, v value.Collection) (value.Collection, error) {
		if len(v) == 0 {
			return nil, nil
		}
		return v.Multiply(ctx, value.Collection{value.Integer(-1)})
	},
}

// EvalUnaryOp looks up and applies the prefix operator named op.
func EvalUnaryOp(ctx context.Context, ec EvalContext, op string, operand value.Collection) (value.Collection, error) {
	f, ok := unaryOps[op]
	if !ok {
		return nil, fmt.Errorf("unknown unary operator %q", op)
	}
	return f(ctx, ec, operand)
}

func equalityResult(eq, ok bool) value.Collection {
	if !ok {
		return nil
	}
	return value.Collection{value.Boolean(eq)}
}

func negateEquality(eq, ok bool) value.Collection {
	if !ok {
		return nil
	}
	return value.Collection{value.Boolean(!eq)}
}

func comparisonOp(accept func(cmp int) bool) BinaryFunc {
	return func(ctx context.Context, ec EvalContext, l, r value.Collection) (value.Collection, error) {
		cmp, ok, err := l.Cmp(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return value.Collection{value.Boolean(accept(cmp))}, nil
	}
}
