package fhirpath

import (
	"context"
	"fmt"
	"time"

	"github.com/octofhir/fhirpath/analyzer"
	"github.com/octofhir/fhirpath/model"
	"github.com/octofhir/fhirpath/registry"
	"github.com/octofhir/fhirpath/value"
)

// EvalOptions configures a single Evaluate call (or an Engine's defaults).
// Grounded on robertoAraneda/gofhir's EvalOptions/EvalOption (pkg/fhirpath/
// options.go), adapted to this repo's context-keyed recursion/collection
// guards (limits.go) and value.Collection-typed external variables.
type EvalOptions struct {
	Timeout           time.Duration
	MaxRecursionDepth int
	MaxCollectionSize int
	Variables         map[string]value.Collection
	Tracer            Tracer
}

// DefaultOptions returns the evaluator's baseline limits: a 5 second
// timeout, recursion depth 1000, collection size 1,000,000, no bound
// variables, trace() writing to stdout.
func DefaultOptions() *EvalOptions {
	return &EvalOptions{
		Timeout:           5 * time.Second,
		MaxRecursionDepth: defaultMaxRecursionDepth,
		MaxCollectionSize: defaultMaxCollectionSize,
	}
}

// EvalOption mutates an EvalOptions; functional-option constructors below.
type EvalOption func(*EvalOptions)

// WithTimeout bounds how long a single Evaluate call may run.
func WithTimeout(d time.Duration) EvalOption {
	return func(o *EvalOptions) { o.Timeout = d }
}

// WithMaxRecursionDepth overrides the default recursion-depth guard.
func WithMaxRecursionDepth(n int) EvalOption {
	return func(o *EvalOptions) { o.MaxRecursionDepth = n }
}

// WithMaxCollectionSize overrides the default collection-size guard,
// tripped by repeat()/descendants() expressions that never converge.
func WithMaxCollectionSize(n int) EvalOption {
	return func(o *EvalOptions) { o.MaxCollectionSize = n }
}

// WithVariable binds name as a `%name` external constant visible to the
// evaluated expression.
func WithVariable(name string, val value.Collection) EvalOption {
	return func(o *EvalOptions) {
		if o.Variables == nil {
			o.Variables = map[string]value.Collection{}
		}
		o.Variables[name] = val
	}
}

// WithEvalTracer installs the trace() destination for this call.
func WithEvalTracer(t Tracer) EvalOption {
	return func(o *EvalOptions) { o.Tracer = t }
}

func (o *EvalOptions) apply(opts []EvalOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// Engine is the FHIRPath integration facade: a single entry point holding a
// parsed-expression cache, a model provider handle, a function registry
// handle, and an optional static analyzer, the way spec.md's integration
// surface names them. Grounded on robertoAraneda/gofhir's package-level
// DefaultCache/GetCached/EvaluateCached convenience layer (pkg/fhirpath/
// cache.go), generalized into an explicit type so a caller can hold more
// than one Engine (e.g. one per loaded FHIR release/model.Provider).
type Engine struct {
	provider model.Provider
	reg      *registry.Registry
	cache    *ExpressionCache
	analyzer *analyzer.Analyzer
	defaults EvalOptions

	schemaVersion string
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithCache enables a bounded expression cache of the given size; size <= 0
// means unbounded. Without this option, Engine.Parse parses on every call.
func WithCache(size int) EngineOption {
	return func(e *Engine) { e.cache = NewExpressionCache(size) }
}

// WithAnalyzer attaches a static analyzer, enabling Engine.Analyze.
func WithAnalyzer(a *analyzer.Analyzer) EngineOption {
	return func(e *Engine) { e.analyzer = a }
}

// WithDefaultOptions sets the Engine-wide default EvalOptions, overridden
// per call by options passed to Engine.Evaluate.
func WithDefaultOptions(opts ...EvalOption) EngineOption {
	return func(e *Engine) { e.defaults.apply(opts) }
}

// NewEngine builds an Engine over provider and reg. A nil reg falls back to
// the package-level default function registry.
func NewEngine(provider model.Provider, reg *registry.Registry, opts ...EngineOption) *Engine {
	if reg == nil {
		reg = registry.GetRegistry()
	}
	e := &Engine{
		provider:      provider,
		reg:           reg,
		defaults:      *DefaultOptions(),
		schemaVersion: provider.SchemaVersion(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse compiles src into an Expression, consulting the expression cache
// when one is configured.
func (e *Engine) Parse(src string) (Expression, error) {
	e.invalidateOnSchemaChange()
	if e.cache != nil {
		return e.cache.Get(src)
	}
	return Parse(src)
}

// Analyze runs the static analyzer (if configured via WithAnalyzer) over
// src, resolving property/function references against rootType without
// evaluating against any actual data.
func (e *Engine) Analyze(ctx context.Context, src string, rootType value.TypeSpecifier, rootCard analyzer.Cardinality) (*analyzer.Result, error) {
	if e.analyzer == nil {
		return nil, fmt.Errorf("fhirpath: engine has no analyzer configured")
	}
	expr, err := e.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.analyzer.Analyze(ctx, expr.tree, rootType, rootCard), nil
}

// Evaluate parses (or fetches from cache) src and evaluates it against
// target, applying the Engine's default EvalOptions overridden by opts.
func (e *Engine) Evaluate(ctx context.Context, src string, target value.Element, opts ...EvalOption) (value.Collection, error) {
	expr, err := e.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.EvaluateExpression(ctx, expr, target, opts...)
}

// EvaluateExpression evaluates an already-parsed Expression, skipping the
// cache lookup. Use this when the caller already holds an Expression (e.g.
// one built once at startup via MustParse) and evaluates it repeatedly.
func (e *Engine) EvaluateExpression(ctx context.Context, expr Expression, target value.Element, opts ...EvalOption) (value.Collection, error) {
	o := e.defaults
	o.Variables = cloneVariables(e.defaults.Variables)
	o.apply(opts)

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	if o.MaxRecursionDepth > 0 {
		ctx = withMaxRecursionDepth(ctx, o.MaxRecursionDepth)
	}
	if o.MaxCollectionSize > 0 {
		ctx = withMaxCollectionSize(ctx, o.MaxCollectionSize)
	}
	if o.Tracer != nil {
		ctx = WithTracer(ctx, o.Tracer)
	}

	root := value.Collection{target}
	ec := newRootEvalContext(root, e.reg, e.provider, o.Variables)
	result, _, err := ec.evalNode(ctx, expr.tree, root, true)
	return result, err
}

// EvaluateResource decodes a JSON resource document and evaluates src
// against it.
func (e *Engine) EvaluateResource(ctx context.Context, src string, data []byte, opts ...EvalOption) (value.Collection, error) {
	node, err := model.NewResourceNode(ctx, e.provider, data)
	if err != nil {
		return nil, fmt.Errorf("fhirpath: %w", err)
	}
	return e.Evaluate(ctx, src, node, opts...)
}

// CacheStats reports the expression cache's hit/miss counters, or a zero
// value if no cache is configured.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// invalidateOnSchemaChange clears the expression cache when the model
// provider's schema generation has changed since the Engine was built or
// last checked — a changed schema can change how a property name resolves
// (plain vs. choice-suffixed), invalidating cached ASTs' analyzer
// annotations even though the AST's shape itself would still parse.
func (e *Engine) invalidateOnSchemaChange() {
	if e.cache == nil {
		return
	}
	v := e.provider.SchemaVersion()
	if v != e.schemaVersion {
		e.cache.Clear()
		e.schemaVersion = v
	}
}

func cloneVariables(m map[string]value.Collection) map[string]value.Collection {
	if m == nil {
		return nil
	}
	out := make(map[string]value.Collection, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
