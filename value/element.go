// Package value implements the FHIRPath value model: a closed sum type
// (Boolean, Integer, Long, Decimal, String, Date, Time, DateTime, Quantity,
// Resource, Collection, TypeInfo) plus the conversion, comparison, and
// arithmetic operations the evaluator dispatches to. Grounded on the
// Element-interface style of the teacher's fhirpath/types.go, generalized
// from a single-package layout into one file per variant.
package value

import (
	"context"
	"encoding/json"
	"fmt"
)

// Element is implemented by every value variant. Conversion methods return
// ok=false when the source cannot be converted at all, and a non-nil error
// only for implicit conversions the FHIRPath spec forbids.
type Element interface {
	Children(name ...string) Collection
	ToBoolean(explicit bool) (v Boolean, ok bool, err error)
	ToString(explicit bool) (v String, ok bool, err error)
	ToInteger(explicit bool) (v Integer, ok bool, err error)
	ToLong(explicit bool) (v Long, ok bool, err error)
	ToDecimal(explicit bool) (v Decimal, ok bool, err error)
	ToDate(explicit bool) (v Date, ok bool, err error)
	ToTime(explicit bool) (v Time, ok bool, err error)
	ToDateTime(explicit bool) (v DateTime, ok bool, err error)
	ToQuantity(explicit bool) (v Quantity, ok bool, err error)
	Equal(other Element) (eq bool, ok bool)
	Equivalent(other Element) bool
	TypeInfo() TypeInfo
	json.Marshaler
	fmt.Stringer
}

// cmpElement is implemented by every ordered variant (String, Integer,
// Long, Decimal, Date, Time, DateTime, Quantity). Comparing across
// incompatible units or precisions returns ok=false (the empty collection
// per FHIRPath's "indeterminate" comparison semantics).
type cmpElement interface {
	Element
	Cmp(other Element) (cmp int, ok bool, err error)
}

type addElement interface {
	Element
	Add(ctx context.Context, other Element) (Element, error)
}

type subtractElement interface {
	Element
	Subtract(ctx context.Context, other Element) (Element, error)
}

type multiplyElement interface {
	Element
	Multiply(ctx context.Context, other Element) (Element, error)
}

type divideElement interface {
	Element
	Divide(ctx context.Context, other Element) (Element, error)
}

type divElement interface {
	Element
	Div(ctx context.Context, other Element) (Element, error)
}

type modElement interface {
	Element
	Mod(ctx context.Context, other Element) (Element, error)
}

// defaultConversionError is embedded by variants that cannot convert to
// most other types, so each file only overrides the conversions that are
// actually meaningful for it.
type defaultConversionError[F any] struct{}

func (defaultConversionError[F]) ToBoolean(bool) (Boolean, bool, error) {
	return false, false, nil
}
func (defaultConversionError[F]) ToString(bool) (String, bool, error) {
	return "", false, nil
}
func (defaultConversionError[F]) ToInteger(bool) (Integer, bool, error) {
	return 0, false, nil
}
func (defaultConversionError[F]) ToLong(bool) (Long, bool, error) {
	return 0, false, nil
}
func (defaultConversionError[F]) ToDecimal(bool) (Decimal, bool, error) {
	return Decimal{}, false, nil
}
func (defaultConversionError[F]) ToDate(bool) (Date, bool, error) {
	return Date{}, false, nil
}
func (defaultConversionError[F]) ToTime(bool) (Time, bool, error) {
	return Time{}, false, nil
}
func (defaultConversionError[F]) ToDateTime(bool) (DateTime, bool, error) {
	return DateTime{}, false, nil
}
func (defaultConversionError[F]) ToQuantity(bool) (Quantity, bool, error) {
	return Quantity{}, false, nil
}

// DefaultConversions is embedded by Element implementations that live
// outside this package (e.g. model.Node) and only support a handful of
// conversions; it supplies "not convertible" defaults for the rest.
type DefaultConversions[F any] struct {
	defaultConversionError[F]
}

func implicitConversionError[F Element, T Element](f F) error {
	var t T
	return fmt.Errorf("implicit conversion from %T to %T is not permitted: %v", f, t, f)
}

func isStringish(e Element) bool {
	_, ok := e.(String)
	return ok
}

func canDelegateNumeric(e Element) bool {
	switch e.(type) {
	case Decimal, Quantity, String, Long:
		return true
	default:
		return false
	}
}

func delegatesToDateTime(e Element) bool {
	_, ok := e.(DateTime)
	return ok
}

func toPrimitive(e Element) (Element, bool) {
	if p, ok, err := e.ToBoolean(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToString(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToInteger(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToLong(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToDecimal(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToDateTime(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToDate(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToTime(false); err == nil && ok {
		return p, true
	}
	if p, ok, err := e.ToQuantity(false); err == nil && ok {
		return p, true
	}
	return nil, false
}
