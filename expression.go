package fhirpath

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/model"
	"github.com/octofhir/fhirpath/registry"
	"github.com/octofhir/fhirpath/value"
)

// Expression is a parsed FHIRPath expression, ready to evaluate against any
// number of target elements. Grounded on the teacher's fhirpath.Expression
// (fhirpath/expression.go): a thin wrapper around the parsed tree, built
// through Parse/MustParse and consumed by Evaluate.
type Expression struct {
	tree parser.Node
	src  string
}

// String returns the expression's original source text.
func (e Expression) String() string { return e.src }

// Parse parses src into an Expression, per FHIRPath's normative grammar.
func Parse(src string) (Expression, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return Expression{}, err
	}
	return Expression{tree: tree, src: src}, nil
}

// MustParse parses src and panics on error; for hardcoded expressions in
// tests and examples, mirroring the teacher's MustParse.
func MustParse(src string) Expression {
	expr, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return expr
}

// Evaluate runs expr against target, using provider for schema/navigation
// and reg for function dispatch. A nil reg falls back to the package-level
// default registry. This is the same shape as the teacher's
// fhirpath.Evaluate(ctx, target, expr), generalized to take an explicit
// model.Provider since this repo's resources are schema-driven model.Node
// values rather than generated Go structs carrying their own type identity.
func Evaluate(ctx context.Context, target value.Element, expr Expression, provider model.Provider, reg *registry.Registry) (value.Collection, error) {
	if reg == nil {
		reg = registry.GetRegistry()
	}
	root := value.Collection{target}
	ec := newRootEvalContext(root, reg, provider, nil)
	result, _, err := ec.evalNode(ctx, expr.tree, root, true)
	return result, err
}

// EvaluateResource is a convenience wrapper that decodes a JSON resource
// document and evaluates expr against it.
func EvaluateResource(ctx context.Context, provider model.Provider, data []byte, expr Expression, reg *registry.Registry) (value.Collection, error) {
	node, err := model.NewResourceNode(ctx, provider, data)
	if err != nil {
		return nil, fmt.Errorf("fhirpath: %w", err)
	}
	return Evaluate(ctx, node, expr, provider, reg)
}
