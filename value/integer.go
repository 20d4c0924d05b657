package value

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/octofhir/fhirpath/internal/overflow"
)

// Integer is System.Integer, a 32-bit signed integer.
type Integer int32

func (i Integer) Children(name ...string) Collection { return nil }

func (i Integer) ToBoolean(explicit bool) (Boolean, bool, error) {
	if !explicit {
		return false, false, implicitConversionError[Integer, Boolean](i)
	}
	switch i {
	case 0:
		return false, true, nil
	case 1:
		return true, true, nil
	default:
		return false, false, nil
	}
}

func (i Integer) ToString(bool) (String, bool, error) { return String(i.String()), true, nil }
func (i Integer) ToInteger(bool) (Integer, bool, error) { return i, true, nil }
func (i Integer) ToLong(bool) (Long, bool, error)       { return Long(i), true, nil }
func (i Integer) ToDecimal(bool) (Decimal, bool, error) {
	return Decimal{Value: apd.New(int64(i), 0)}, true, nil
}
func (i Integer) ToDate(bool) (Date, bool, error)         { return Date{}, false, nil }
func (i Integer) ToTime(bool) (Time, bool, error)         { return Time{}, false, nil }
func (i Integer) ToDateTime(bool) (DateTime, bool, error) { return DateTime{}, false, nil }
func (i Integer) ToQuantity(bool) (Quantity, bool, error) {
	d, _, _ := i.ToDecimal(true)
	return Quantity{Value: d, Unit: "1"}, true, nil
}

func (i Integer) Equal(other Element) (eq bool, ok bool) {
	if o, ok, err := other.ToInteger(false); err == nil && ok {
		return i == o, true
	}
	if canDelegateNumeric(other) {
		return other.Equal(i)
	}
	return false, true
}

func (i Integer) Equivalent(other Element) bool {
	eq, ok := i.Equal(other)
	return ok && eq
}

func (i Integer) Cmp(other Element) (cmp int, ok bool, err error) {
	if _, isLong := other.(Long); isLong {
		return Long(i).Cmp(other)
	}
	d, _, _ := i.ToDecimal(true)
	cmp, ok, err = d.Cmp(other)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare Integer to %T", other)
	}
	return cmp, true, nil
}

func (i Integer) Multiply(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		r, ok := overflow.Mul(int32(i), int32(o))
		if !ok {
			return nil, nil
		}
		return Integer(r), nil
	case Long:
		return Long(i).Multiply(ctx, o)
	case Decimal:
		d, _, _ := i.ToDecimal(true)
		return d.Multiply(ctx, o)
	}
	return nil, fmt.Errorf("cannot multiply Integer with %T", other)
}

func (i Integer) Divide(ctx context.Context, other Element) (Element, error) {
	d, _, _ := i.ToDecimal(true)
	return d.Divide(ctx, other)
}

func (i Integer) Div(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		r, ok := overflow.Div(int32(i), int32(o))
		if !ok {
			return nil, nil
		}
		return Integer(r), nil
	case Long:
		return Long(i).Div(ctx, o)
	case Decimal:
		d, _, _ := i.ToDecimal(true)
		return d.Div(ctx, o)
	}
	return nil, fmt.Errorf("cannot div Integer with %T", other)
}

func (i Integer) Mod(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		r, ok := overflow.Mod(int32(i), int32(o))
		if !ok {
			return nil, nil
		}
		return Integer(r), nil
	case Long:
		return Long(i).Mod(ctx, o)
	case Decimal:
		d, _, _ := i.ToDecimal(true)
		return d.Mod(ctx, o)
	}
	return nil, fmt.Errorf("cannot mod Integer with %T", other)
}

func (i Integer) Add(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		r, ok := overflow.Add(int32(i), int32(o))
		if !ok {
			return nil, nil
		}
		return Integer(r), nil
	case Long:
		return Long(i).Add(ctx, o)
	case Decimal:
		d, _, _ := i.ToDecimal(true)
		return d.Add(ctx, o)
	}
	return nil, fmt.Errorf("cannot add Integer and %T", other)
}

func (i Integer) Subtract(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		r, ok := overflow.Sub(int32(i), int32(o))
		if !ok {
			return nil, nil
		}
		return Integer(r), nil
	case Long:
		return Long(i).Subtract(ctx, o)
	case Decimal:
		d, _, _ := i.ToDecimal(true)
		return d.Subtract(ctx, o)
	}
	return nil, fmt.Errorf("cannot subtract %T from Integer", other)
}

func (i Integer) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "Integer", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (i Integer) MarshalJSON() ([]byte, error) { return json.Marshal(int32(i)) }
func (i Integer) String() string               { return strconv.FormatInt(int64(i), 10) }
