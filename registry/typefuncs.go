package registry

import (
	"context"
	"fmt"

	"github.com/octofhir/fhirpath/internal/parser"
	"github.com/octofhir/fhirpath/value"
)

// registerTypeFuncs adds type()/is()/as()/ofType(), adapted from the
// teacher's fhirpath/functions.go and fhirpath/types.go (isType/asType/
// resolveType/subTypeOf), rewired against model.Provider.IsTypeCompatible
// instead of the teacher's generated-struct type switch.
func registerTypeFuncs(r *Registry) {
	r.Register(FuncDef{
		Signature: Signature{Name: "type", Return: value.TypeSpecifier{Namespace: "System", Name: "TypeInfo"}, Category: CategoryTypeCheck, Pure: true,
			Doc: "The reified TypeInfo of each input element."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("type", args, 0, 0); err != nil {
				return nil, err
			}
			result := make(value.Collection, len(focus))
			for i, e := range focus {
				result[i] = e.TypeInfo()
			}
			return result, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "is", Return: boolType(), Category: CategoryTypeCheck, Pure: true,
			Params: []Param{{Name: "type", Type: anyType}},
			Doc:    "True if the single input element is of (or derives from) type."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("is", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			if len(focus) > 1 {
				return nil, fmt.Errorf("is(): expected a single input element")
			}
			ts, ok := typeSpecifierFromNode(args[0])
			if !ok {
				return nil, fmt.Errorf("is(): expected a type specifier argument")
			}
			b, err := isType(ctx, ec, focus[0], ts)
			if err != nil {
				return nil, err
			}
			return value.Collection{value.Boolean(b)}, nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "as", Return: anyType, Category: CategoryTypeCheck, Pure: true,
			Params: []Param{{Name: "type", Type: anyType}},
			Doc:    "The input element narrowed to type, or empty when it is not of that type."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("as", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			if len(focus) > 1 {
				return nil, fmt.Errorf("as(): expected a single input element")
			}
			ts, ok := typeSpecifierFromNode(args[0])
			if !ok {
				return nil, fmt.Errorf("as(): expected a type specifier argument")
			}
			b, err := isType(ctx, ec, focus[0], ts)
			if err != nil {
				return nil, err
			}
			if !b {
				return nil, nil
			}
			return value.Singleton(focus[0]), nil
		},
	})

	r.Register(FuncDef{
		Signature: Signature{Name: "ofType", Return: anyType, Category: CategoryTypeCheck, Pure: true,
			Params: []Param{{Name: "type", Type: anyType}},
			Doc:    "Elements of the input collection that are of (or derive from) type."},
		Impl: func(ctx context.Context, ec EvalContext, focus value.Collection, args []parser.Node) (value.Collection, error) {
			if err := requireArity("ofType", args, 1, 1); err != nil {
				return nil, err
			}
			if len(focus) == 0 {
				return nil, nil
			}
			ts, ok := typeSpecifierFromNode(args[0])
			if !ok {
				return nil, fmt.Errorf("ofType(): expected a type specifier argument")
			}
			var result value.Collection
			for _, e := range focus {
				b, err := isType(ctx, ec, e, ts)
				if err != nil {
					return nil, err
				}
				if b {
					result = append(result, e)
				}
			}
			return result, nil
		},
	})
}

// typeSpecifierFromNode recovers a type specifier from the function-call
// form `ofType(FHIR.Patient)`/`as(Quantity)`, whose argument parses as a
// plain member-access chain rather than the `is`/`as` operator's dedicated
// TypeSpecifier grammar.
func typeSpecifierFromNode(node parser.Node) (value.TypeSpecifier, bool) {
	switch n := node.(type) {
	case parser.Identifier:
		return value.TypeSpecifier{Name: n.Name}, true
	case parser.MethodCall:
		if n.IsCall {
			return value.TypeSpecifier{}, false
		}
		if target, ok := n.Target.(parser.Identifier); ok {
			return value.TypeSpecifier{Namespace: target.Name, Name: n.Name}, true
		}
	case parser.TypeCheck:
		return value.TypeSpecifier{Namespace: n.Type.Namespace, Name: n.Type.Name}, true
	case parser.TypeCast:
		return value.TypeSpecifier{Namespace: n.Type.Namespace, Name: n.Type.Name}, true
	}
	return value.TypeSpecifier{}, false
}

// isType reports whether elem's runtime type is ts or a subtype of it,
// grounded on the teacher's isType (fhirpath/types.go), rewired against
// model.Provider.IsTypeCompatible for the FHIR inheritance chain instead
// of a type switch over generated structs.
func isType(ctx context.Context, ec EvalContext, elem value.Element, ts value.TypeSpecifier) (bool, error) {
	qn, ok := elem.TypeInfo().QualifiedName()
	if !ok {
		return false, nil
	}
	targetNS := ts.Namespace
	if targetNS == "" {
		targetNS = qn.Namespace
	}
	if targetNS == "System" {
		return qn.Namespace == "System" && qn.Name == ts.Name, nil
	}
	if qn.Namespace != "FHIR" {
		return false, nil
	}
	return ec.Provider().IsTypeCompatible(ctx, qn.Name, ts.Name)
}
