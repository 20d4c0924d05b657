package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// evaluationInstantKey lets an Engine (C9) pin the evaluation instant
// now()/today()/timeOfDay() observe, for reproducible tests, the way the
// teacher's fhirpath.WithTracer pattern installs ambient state via ctx.
type evaluationInstantKey struct{}

// WithEvaluationInstant overrides the instant now()/today()/timeOfDay()
// report within ctx.
func WithEvaluationInstant(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, evaluationInstantKey{}, t)
}

func evaluationInstant(ctx context.Context) time.Time {
	if ctx != nil {
		if t, ok := ctx.Value(evaluationInstantKey{}).(time.Time); ok {
			return t
		}
	}
	return time.Now()
}

// registerTemporalFuncs adds the Temporal category, adapted from the
// teacher's fhirpath/functions.go entries of the same name.
func registerTemporalFuncs(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "now", Return: value.TypeSpecifier{Namespace: "System", Name: "DateTime"}, Category: CategoryTemporal,
			Doc: "The instant the expression is being evaluated at, with timezone."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("now", args, 0, 0); err != nil {
				return nil, err
			}
			instant := evaluationInstant(ctx)
			return value.Collection{value.DateTime{Value: instant, Precision: value.DateTimePrecisionMillisecond, HasTimeZone: true}}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "today", Return: value.TypeSpecifier{Namespace: "System", Name: "Date"}, Category: CategoryTemporal,
			Doc: "The calendar date the expression is being evaluated at."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("today", args, 0, 0); err != nil {
				return nil, err
			}
			instant := evaluationInstant(ctx)
			d := time.Date(instant.Year(), instant.Month(), instant.Day(), 0, 0, 0, 0, instant.Location())
			return value.Collection{value.Date{Value: d, Precision: value.DatePrecisionDay}}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "timeOfDay", Return: value.TypeSpecifier{Namespace: "System", Name: "Time"}, Category: CategoryTemporal,
			Doc: "The time of day the expression is being evaluated at."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("timeOfDay", args, 0, 0); err != nil {
				return nil, err
			}
			instant := evaluationInstant(ctx)
			tod := time.Date(0, 1, 1, instant.Hour(), instant.Minute(), instant.Second(), instant.Nanosecond(), instant.Location())
			return value.Collection{value.Time{Value: tod, Precision: value.TimePrecisionMillisecond}}, nil
		},
	})

	component := func(name string, extract func(t time.Time) int) {
		r.Register(FuncDef{
			Signature: Signature{Name: name, Return: intType(), Category: CategoryTemporal, Pure: true,
				Doc: "Extracts one calendar component from a Date, Time, or DateTime."},
			Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
				if err := requireArity(name, args, 0, 0); err != nil {
					return nil, err
				}
				if len(focus) == 0 {
					return nil, nil
				}
				t, ok := temporalValue(focus[0])
				if !ok {
					return nil, fmt.Errorf("%s: expected a Date, Time or DateTime operand", name)
				}
				return value.Collection{value.Integer(extract(t))}, nil
			},
		})
	}
	component("yearOf", func(t time.Time) int { return t.Year() })
	component("monthOf", func(t time.Time) int { return int(t.Month()) })
	component("dayOf", func(t time.Time) int { return t.Day() })
	component("hourOf", func(t time.Time) int { return t.Hour() })
	component("minuteOf", func(t time.Time) int { return t.Minute() })
	component("secondOf", func(t time.Time) int { return t.Second() })
	component("millisecondOf", func(t time.Time) int { return t.Nanosecond() / 1_000_000 })

	r.Register(FuncDef{
		Signature: Signature{Name: "precision", Return: intType(), Category: CategoryTemporal, Pure: true,
			Doc: "The number of digits after the decimal point of the input Decimal, or the number of digits in the representation of the input Date, Time or DateTime."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("precision", args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			switch v := focus[0].(type) {
			case value.Date:
				return value.Collection{value.Integer(datePrecisionDigits(v.Precision))}, nil
			case value.Time:
				return value.Collection{value.Integer(timePrecisionDigits(v.Precision))}, nil
			case value.DateTime:
				return value.Collection{value.Integer(dateTimePrecisionDigits(v.Precision))}, nil
			case value.Decimal:
				places := -int64(v.Value.Exponent)
				if places < 0 {
					places = 0
				}
				return value.Collection{value.Integer(places)}, nil
			default:
				return nil, fmt.Errorf("precision: unsupported operand %T", v)
			}
		},
	})
}

func temporalValue(e value.Element) (time.Time, bool) {
	switch v := e.(type) {
	case value.Date:
		return v.Value, true
	case value.Time:
		return v.Value, true
	case value.DateTime:
		return v.Value, true
	default:
		return time.Time{}, false
	}
}

func datePrecisionDigits(p value.DatePrecision) int {
	switch p {
	case value.DatePrecisionYear:
		return 4
	case value.DatePrecisionMonth:
		return 6
	default:
		return 8
	}
}

func timePrecisionDigits(p value.TimePrecision) int {
	switch p {
	case value.TimePrecisionHour:
		return 2
	case value.TimePrecisionMinute:
		return 4
	case value.TimePrecisionSecond:
		return 6
	default:
		return 9
	}
}

func dateTimePrecisionDigits(p value.DateTimePrecision) int {
	switch p {
	case value.DateTimePrecisionYear:
		return 4
	case value.DateTimePrecisionMonth:
		return 6
	case value.DateTimePrecisionDay:
		return 8
	case value.DateTimePrecisionHour:
		return 10
	case value.DateTimePrecisionMinute:
		return 12
	case value.DateTimePrecisionSecond:
		return 14
	default:
		return 17
	}
}
