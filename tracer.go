package fhirpath

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/value"
)

// Tracer receives trace(name, projection) side effects during evaluation.
// Grounded on the teacher's fhirpath.Tracer/WithTracer (fhirpath/functions.go),
// rewired against this repo's value.Collection instead of its Collection alias.
type Tracer interface {
	Log(name string, collection value.Collection) error
}

// StdoutTracer writes every trace() call to stdout, one line per call.
type StdoutTracer struct{}

func (StdoutTracer) Log(name string, collection value.Collection) error {
	_, err := fmt.Printf("%s: %v\n", name, collection)
	return err
}

type tracerKey struct{}

// WithTracer installs logger as the trace() destination for ctx. Absent an
// installed Tracer, trace() writes to stdout via StdoutTracer.
func WithTracer(ctx context.Context, logger Tracer) context.Context {
	return context.WithValue(ctx, tracerKey{}, logger)
}

func tracerFrom(ctx context.Context) Tracer {
	if logger, ok := ctx.Value(tracerKey{}).(Tracer); ok && logger != nil {
		return logger
	}
	return StdoutTracer{}
}
