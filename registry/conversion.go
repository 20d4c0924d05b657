package registry

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerConversion adds the toX()/convertsToX() pairs, adapted from the
// teacher's fhirpath/functions.go entries of the same name. Both halves of
// each pair share the same elementTo[T] conversion (registry.go), mirroring
// the teacher's own toBoolean/convertsToBoolean symmetry.
func registerConversion(r *Registry) {
	registerConversionPair[value.Boolean](r, "toBoolean", "convertsToBoolean", boolType())
	registerConversionPair[value.Integer](r, "toInteger", "convertsToInteger", intType())
	registerConversionPair[value.Long](r, "toLong", "convertsToLong", value.TypeSpecifier{Namespace: "System", Name: "Long"})
	registerConversionPair[value.Decimal](r, "toDecimal", "convertsToDecimal", decType())
	registerConversionPair[value.String](r, "toString", "convertsToString", strType())
	registerConversionPair[value.Date](r, "toDate", "convertsToDate", value.TypeSpecifier{Namespace: "System", Name: "Date"})
	registerConversionPair[value.Time](r, "toTime", "convertsToTime", value.TypeSpecifier{Namespace: "System", Name: "Time"})
	registerConversionPair[value.DateTime](r, "toDateTime", "convertsToDateTime", value.TypeSpecifier{Namespace: "System", Name: "DateTime"})
	registerConversionPair[value.Quantity](r, "toQuantity", "convertsToQuantity", value.TypeSpecifier{Namespace: "System", Name: "Quantity"})
}

func registerConversionPair[T value.Element](r *Registry, toName, convertsName string, ret value.TypeSpecifier) {
	r.Register(FuncDef{
		Signature: Signature{Name: toName, Return: ret, Category: CategoryConversion, Pure: true,
			Doc: "Converts the input to " + ret.Name + ", or empty when not convertible."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity(toName, args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			if len(focus) > 1 {
				return nil, fmt.Errorf("%s: collection contains > 1 values", toName)
			}
			v, ok, err := elementTo[T](focus[0], true)
			if err != nil || !ok {
				return nil, nil
			}
			return value.Collection{v}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: convertsName, Return: boolType(), Category: CategoryConversion, Pure: true,
			Doc: "True if the input can be converted to " + ret.Name + "."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity(convertsName, args, 0, 0); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return value.Collection{value.Boolean(false)}, nil
			}
			if len(focus) > 1 {
				return nil, fmt.Errorf("%s: collection contains > 1 values", convertsName)
			}
			_, ok, err := elementTo[T](focus[0], true)
			return value.Collection{value.Boolean(err == nil && ok)}, nil
		},
	})
}
