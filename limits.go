package fhirpath

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/diagnostic"
)

// Recursion-depth and collection-size guards against pathological
// `repeat()`/`descendants()` expressions, grounded on robertoAraneda/gofhir's
// eval.Context (SetLimit/CheckCancellation/CheckCollectionSize), adapted from
// a dedicated Context struct to context.Context-keyed values in the style
// already established by registry/temporalfuncs.go's evaluationInstantKey.
const (
	defaultMaxRecursionDepth   = 1000
	defaultMaxCollectionSize   = 1_000_000
)

type maxDepthKey struct{}
type depthKey struct{}
type maxCollectionSizeKey struct{}

// withMaxRecursionDepth overrides the evaluator's recursion-depth guard,
// tripped by deeply chained member access/function calls (not by
// repeat()/aggregate(), which loop rather than recurse). Exposed publicly as
// the WithMaxRecursionDepth EvalOption (engine.go).
func withMaxRecursionDepth(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, maxDepthKey{}, n)
}

func maxRecursionDepth(ctx context.Context) int {
	if n, ok := ctx.Value(maxDepthKey{}).(int); ok && n > 0 {
		return n
	}
	return defaultMaxRecursionDepth
}

// withMaxCollectionSize overrides the evaluator's collection-size guard,
// tripped by repeat()/descendants() expressions that never converge. Exposed
// publicly as the WithMaxCollectionSize EvalOption (engine.go).
func withMaxCollectionSize(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, maxCollectionSizeKey{}, n)
}

func maxCollectionSize(ctx context.Context) int {
	if n, ok := ctx.Value(maxCollectionSizeKey{}).(int); ok && n > 0 {
		return n
	}
	return defaultMaxCollectionSize
}

func enterDepth(ctx context.Context) (context.Context, error) {
	d, _ := ctx.Value(depthKey{}).(int)
	d++
	if d > maxRecursionDepth(ctx) {
		return ctx, diagnostic.Errorf(diagnostic.CodeRecursionExceeded,
			"recursion depth exceeded %d", maxRecursionDepth(ctx)).Build()
	}
	return context.WithValue(ctx, depthKey{}, d), nil
}

func checkCollectionSize(ctx context.Context, n int) error {
	if n > maxCollectionSize(ctx) {
		return fmt.Errorf("fhirpath: collection size %d exceeds limit %d", n, maxCollectionSize(ctx))
	}
	return nil
}

func checkCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
