// Package fhirpath is the integration façade (C9) and home of the
// recursive evaluator (C8): parsing, static analysis and evaluation are all
// exposed from this single root package, the way the teacher exposes
// Parse/MustParse/Evaluate from its own root fhirpath package.
package fhirpath

import (
	"context"
	"fmt"
	"strings"

	"github.com/octofhir/fhirpath/diagnostic"
	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/model"
	"github.com/octofhir/fhirpath/registry"
	"github.com/octofhir/fhirpath/value"
)

// evalContext is the concrete registry.EvalContext the evaluator threads
// through every registry function call. It is immutable; WithScope and
// WithVariable return a new value sharing the parent's maps by reference
// wherever a write does not occur, the way the teacher's WithEnv layers one
// stack frame per defineVariable() rather than rebuilding the whole chain.
type evalContext struct {
	root      value.Collection
	variables map[string]value.Collection
	reg       *registry.Registry
	provider  model.Provider

	hasScope bool
	this     value.Element
	index    int
	total    value.Collection
}

var _ registry.EvalContext = (*evalContext)(nil)

func newRootEvalContext(root value.Collection, reg *registry.Registry, provider model.Provider, variables map[string]value.Collection) *evalContext {
	vars := make(map[string]value.Collection, len(variables))
	for k, v := range variables {
		vars[k] = v
	}
	return &evalContext{
		root:      root,
		variables: vars,
		reg:       reg,
		provider:  provider,
	}
}

func (ec *evalContext) clone() *evalContext {
	dup := *ec
	return &dup
}

// Eval is the registry.EvalContext entry point every Func implementation
// calls to evaluate its (possibly lambda) argument nodes. Each call starts
// a fresh root-position walk of node, per FHIRPath's rule that a function
// argument is itself a complete sub-expression.
func (ec *evalContext) Eval(ctx context.Context, node parser.Node, focus value.Collection) (value.Collection, error) {
	result, _, err := ec.evalNode(ctx, node, focus, true)
	return result, err
}

func (ec *evalContext) WithScope(this value.Element, index int, total value.Collection) registry.EvalContext {
	child := ec.clone()
	child.hasScope = true
	child.this = this
	child.index = index
	child.total = total
	return child
}

func (ec *evalContext) This() (value.Element, bool) { return ec.this, ec.hasScope }
func (ec *evalContext) Index() (int, bool)          { return ec.index, ec.hasScope }
func (ec *evalContext) TotalVar() (value.Collection, bool) {
	return ec.total, ec.hasScope
}

func (ec *evalContext) Root() value.Collection { return ec.root }

func (ec *evalContext) Variable(name string) (value.Collection, bool) {
	v, ok := ec.variables[name]
	return v, ok
}

func (ec *evalContext) WithVariable(name string, val value.Collection) registry.EvalContext {
	child := ec.clone()
	child.variables = make(map[string]value.Collection, len(ec.variables)+1)
	for k, v := range ec.variables {
		child.variables[k] = v
	}
	child.variables[name] = val
	return child
}

func (ec *evalContext) Provider() model.Provider { return ec.provider }

func (ec *evalContext) CheckCollectionSize(ctx context.Context, n int) error {
	return checkCollectionSize(ctx, n)
}

// evalNode is the evaluator's internal recursive core: every AST node kind
// gets one case, grounded on the teacher's evalExpression/evalTerm/
// evalInvocation switch-per-node structure. It returns an updated
// *evalContext alongside the result so defineVariable()'s new binding can
// thread forward through the rest of a `.`-chained expression without
// registry.EvalContext needing a context-carrying return type of its own.
func (ec *evalContext) evalNode(ctx context.Context, node parser.Node, focus value.Collection, isRoot bool) (value.Collection, *evalContext, error) {
	if err := checkCancellation(ctx); err != nil {
		return nil, ec, err
	}
	ctx, err := enterDepth(ctx)
	if err != nil {
		return nil, ec, err
	}

	switch n := node.(type) {
	case parser.Literal:
		v, err := ec.evalLiteral(n)
		return v, ec, err

	case parser.Identifier:
		v, err := ec.memberAccess(ctx, focus, n.Name, isRoot)
		return v, ec, err

	case parser.Variable:
		v, err := ec.evalVariable(n)
		return v, ec, err

	case parser.SpecialInvocation:
		v, err := ec.evalSpecial(n)
		return v, ec, err

	case parser.Parens:
		return ec.evalNode(ctx, n.Inner, focus, isRoot)

	case parser.Tuple:
		var result value.Collection
		cur := ec
		for _, el := range n.Elements {
			v, next, err := cur.evalNode(ctx, el, focus, true)
			if err != nil {
				return nil, ec, err
			}
			cur = next
			result = append(result, v...)
		}
		return result, cur, nil

	case parser.Indexer:
		target, ec2, err := ec.evalNode(ctx, n.Target, focus, isRoot)
		if err != nil {
			return nil, ec, err
		}
		idxCol, _, err := ec2.evalNode(ctx, n.Index, focus, false)
		if err != nil {
			return nil, ec, err
		}
		idx, ok, err := singletonInt(idxCol)
		if err != nil {
			return nil, ec, err
		}
		if !ok || idx < 0 || idx >= len(target) {
			return nil, ec2, nil
		}
		return value.Collection{target[idx]}, ec2, nil

	case parser.UnaryOp:
		operand, ec2, err := ec.evalNode(ctx, n.Operand, focus, isRoot)
		if err != nil {
			return nil, ec, err
		}
		v, err := registry.EvalUnaryOp(ctx, ec2, n.Op, operand)
		return v, ec2, err

	case parser.BinaryOp:
		v, err := ec.evalBinaryOp(ctx, n, focus, isRoot)
		return v, ec, err

	case parser.TypeCheck:
		target, ec2, err := ec.evalNode(ctx, n.Expr, focus, isRoot)
		if err != nil {
			return nil, ec, err
		}
		def, _ := registry.Get("is")
		v, err := def.Impl(ctx, ec2, target, []parser.Node{n})
		return v, ec2, err

	case parser.TypeCast:
		target, ec2, err := ec.evalNode(ctx, n.Expr, focus, isRoot)
		if err != nil {
			return nil, ec, err
		}
		def, _ := registry.Get("as")
		v, err := def.Impl(ctx, ec2, target, []parser.Node{n})
		return v, ec2, err

	case parser.FunctionCall:
		v, ec2, err := ec.evalCall(ctx, n.Name, n.Args, focus)
		return v, ec2, err

	case parser.MethodCall:
		target, ec2, err := ec.evalNode(ctx, n.Target, focus, isRoot)
		if err != nil {
			return nil, ec, err
		}
		if !n.IsCall {
			v, err := ec2.memberAccess(ctx, target, n.Name, false)
			return v, ec2, err
		}
		v, ec3, err := ec2.evalCall(ctx, n.Name, n.Args, target)
		return v, ec3, err

	default:
		return nil, ec, fmt.Errorf("fhirpath: unhandled AST node %T", node)
	}
}

func (ec *evalContext) evalLiteral(lit parser.Literal) (value.Collection, error) {
	switch lit.Kind {
	case parser.LitEmpty:
		return nil, nil
	case parser.LitBoolean:
		return value.Collection{value.Boolean(lit.Value == "true")}, nil
	case parser.LitString:
		return value.Collection{value.String(lit.Value)}, nil
	case parser.LitNumber:
		if strings.Contains(lit.Text, ".") {
			d, ok, err := value.String(lit.Value).ToDecimal(true)
			if err != nil || !ok {
				return nil, fmt.Errorf("fhirpath: invalid decimal literal %q", lit.Text)
			}
			return value.Collection{d}, nil
		}
		i, ok, err := value.String(lit.Value).ToInteger(true)
		if err != nil || !ok {
			return nil, fmt.Errorf("fhirpath: invalid integer literal %q", lit.Text)
		}
		return value.Collection{i}, nil
	case parser.LitLongNumber:
		text := strings.TrimSuffix(lit.Value, "L")
		l, ok, err := value.String(text).ToLong(true)
		if err != nil || !ok {
			return nil, fmt.Errorf("fhirpath: invalid long literal %q", lit.Text)
		}
		return value.Collection{l}, nil
	case parser.LitDate:
		d, err := value.ParseDate(lit.Value)
		if err != nil {
			return nil, fmt.Errorf("fhirpath: invalid date literal %q: %w", lit.Text, err)
		}
		return value.Collection{d}, nil
	case parser.LitDateTime:
		dt, err := value.ParseDateTime(lit.Value)
		if err != nil {
			return nil, fmt.Errorf("fhirpath: invalid dateTime literal %q: %w", lit.Text, err)
		}
		return value.Collection{dt}, nil
	case parser.LitTime:
		t, err := value.ParseTime(lit.Value)
		if err != nil {
			return nil, fmt.Errorf("fhirpath: invalid time literal %q: %w", lit.Text, err)
		}
		return value.Collection{t}, nil
	case parser.LitQuantity:
		q, err := value.ParseQuantity(lit.Value)
		if err != nil {
			return nil, fmt.Errorf("fhirpath: invalid quantity literal %q: %w", lit.Text, err)
		}
		return value.Collection{q}, nil
	default:
		return nil, fmt.Errorf("fhirpath: unhandled literal kind %v", lit.Kind)
	}
}

func (ec *evalContext) evalVariable(v parser.Variable) (value.Collection, error) {
	switch v.Name {
	case "context", "resource", "rootResource":
		return ec.root, nil
	case "ucum":
		return value.Collection{value.String("http://unitsofmeasure.org")}, nil
	case "loinc":
		return value.Collection{value.String("http://loinc.org")}, nil
	case "sct":
		return value.Collection{value.String("http://snomed.info/sct")}, nil
	}
	if val, ok := ec.Variable(v.Name); ok {
		return val, nil
	}
	return nil, fmt.Errorf("fhirpath: undefined variable %%%s", v.Name)
}

func (ec *evalContext) evalSpecial(n parser.SpecialInvocation) (value.Collection, error) {
	switch n.Kind {
	case parser.SpecialThis:
		if this, ok := ec.This(); ok {
			return value.Collection{this}, nil
		}
		return ec.root, nil
	case parser.SpecialIndex:
		if idx, ok := ec.Index(); ok {
			return value.Collection{value.Integer(idx)}, nil
		}
		return nil, fmt.Errorf("fhirpath: $index used outside a lambda scope")
	case parser.SpecialTotal:
		if total, ok := ec.TotalVar(); ok {
			return total, nil
		}
		return nil, fmt.Errorf("fhirpath: $total used outside an aggregate() scope")
	default:
		return nil, fmt.Errorf("fhirpath: unhandled special invocation")
	}
}

// memberAccess implements `.property` navigation: every element of focus
// is asked for its child named property, and the results are flattened.
// When that yields nothing and isRoot is true — i.e. property sits at the
// single leftmost term of the whole expression — it falls back to a
// self-type filter (`Patient.name` with focus already narrowed to a
// Patient), returning focus unchanged if its type matches property or
// empty otherwise. Grounded on the teacher's evalInvocation
// MemberInvocationContext case (fhirpath/invocation.go), including the
// exact isRoot-gated fallback order.
func (ec *evalContext) memberAccess(ctx context.Context, focus value.Collection, property string, isRoot bool) (value.Collection, error) {
	var result value.Collection
	for _, e := range focus {
		result = append(result, e.Children(property)...)
	}
	if len(result) > 0 {
		return result, nil
	}
	if !isRoot {
		return nil, nil
	}
	ok, err := ec.provider.ResourceTypeExists(ctx, property)
	if err != nil || !ok {
		return nil, nil
	}
	var filtered value.Collection
	for _, e := range focus {
		qn, ok := e.TypeInfo().QualifiedName()
		if !ok {
			continue
		}
		compat, err := ec.provider.IsTypeCompatible(ctx, qn.Name, property)
		if err != nil {
			return nil, err
		}
		if compat {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// evalCall dispatches a function call (bare or `.`-invoked) by name. args
// carries the original, unevaluated argument nodes; defineVariable and
// trace are special-cased ahead of generic registry dispatch since neither
// fits the plain Func shape: defineVariable must return an updated
// *evalContext rather than just a Collection, and trace needs a real
// side-effecting Tracer the registry package has no dependency on.
func (ec *evalContext) evalCall(ctx context.Context, name string, args []parser.Node, focus value.Collection) (value.Collection, *evalContext, error) {
	switch name {
	case "defineVariable":
		return ec.evalDefineVariable(ctx, args, focus)
	case "trace":
		v, err := ec.evalTrace(ctx, args, focus)
		return v, ec, err
	}
	def, ok := ec.reg.Get(name)
	if !ok {
		return nil, ec, diagnostic.Errorf(diagnostic.CodeUnknownFunction, "unknown function %q", name).Build()
	}
	v, err := def.Impl(ctx, ec, focus, args)
	return v, ec, err
}

func (ec *evalContext) evalDefineVariable(ctx context.Context, args []parser.Node, focus value.Collection) (value.Collection, *evalContext, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, ec, fmt.Errorf("defineVariable(): expected 1 or 2 arguments, got %d", len(args))
	}
	nameCol, err := ec.Eval(ctx, args[0], focus)
	if err != nil {
		return nil, ec, err
	}
	name, ok, err := singletonString(nameCol)
	if err != nil {
		return nil, ec, err
	}
	if !ok {
		return nil, ec, fmt.Errorf("defineVariable(): expected a string name")
	}
	switch name {
	case "context", "resource", "rootResource", "ucum", "loinc", "sct", "this", "index", "total":
		return nil, ec, fmt.Errorf("defineVariable(): %q is a reserved system variable", name)
	}
	if _, already := ec.Variable(name); already {
		return nil, ec, fmt.Errorf("defineVariable(): %q is already defined in this scope", name)
	}
	bound := focus
	if len(args) == 2 {
		bound, err = ec.Eval(ctx, args[1], focus)
		if err != nil {
			return nil, ec, err
		}
	}
	next := ec.WithVariable(name, bound).(*evalContext)
	return focus, next, nil
}

func (ec *evalContext) evalTrace(ctx context.Context, args []parser.Node, focus value.Collection) (value.Collection, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("trace(): expected 1 or 2 arguments, got %d", len(args))
	}
	nameCol, err := ec.Eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	name, ok, err := singletonString(nameCol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("trace(): expected a string name")
	}
	logged := focus
	if len(args) == 2 {
		logged, err = ec.Eval(ctx, args[1], focus)
		if err != nil {
			return nil, err
		}
	}
	if err := tracerFrom(ctx).Log(string(name), logged); err != nil {
		return nil, err
	}
	return focus, nil
}

// evalBinaryOp evaluates both operands under the same isRoot the BinaryOp
// node itself received: each operand is its own complete sub-expression
// (grammar-wise a nested Expression, not an invocation step), so — per the
// teacher's evalExpression, which threads isRoot unchanged into both sides
// of every additive/multiplicative/union/(in)equality/boolean operator —
// a bare resource-type identifier at the head of either operand can still
// resolve via the root self-filter in memberAccess.
func (ec *evalContext) evalBinaryOp(ctx context.Context, n parser.BinaryOp, focus value.Collection, isRoot bool) (value.Collection, error) {
	left, ec2, err := ec.evalNode(ctx, n.Left, focus, isRoot)
	if err != nil {
		return nil, err
	}
	right, _, err := ec2.evalNode(ctx, n.Right, focus, isRoot)
	if err != nil {
		return nil, err
	}
	return registry.EvalBinaryOp(ctx, ec2, n.Op, left, right)
}

func singletonInt(c value.Collection) (int, bool, error) {
	if len(c) == 0 {
		return 0, false, nil
	}
	if len(c) > 1 {
		return 0, false, fmt.Errorf("fhirpath: expected a single index value, got %d", len(c))
	}
	i, ok, err := c[0].ToInteger(false)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	return int(i), true, nil
}

func singletonString(c value.Collection) (value.String, bool, error) {
	if len(c) == 0 {
		return "", false, nil
	}
	if len(c) > 1 {
		return "", false, fmt.Errorf("fhirpath: expected a single string value, got %d", len(c))
	}
	return c[0].ToString(false)
}
