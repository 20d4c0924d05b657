package value

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/octofhir/fhirpath/internal/overflow"
)

// Long is System.Long, a 64-bit signed integer (FHIRPath's `123L` literals).
type Long int64

func (l Long) Children(name ...string) Collection { return nil }

func (l Long) ToBoolean(bool) (Boolean, bool, error) { return false, false, nil }
func (l Long) ToString(bool) (String, bool, error)   { return String(l.String()), true, nil }
func (l Long) ToInteger(explicit bool) (Integer, bool, error) {
	if !explicit {
		return 0, false, implicitConversionError[Long, Integer](l)
	}
	if l > (1<<31-1) || l < -(1<<31) {
		return 0, false, nil
	}
	return Integer(l), true, nil
}
func (l Long) ToLong(bool) (Long, bool, error) { return l, true, nil }
func (l Long) ToDecimal(bool) (Decimal, bool, error) {
	return Decimal{Value: apd.New(int64(l), 0)}, true, nil
}
func (l Long) ToDate(bool) (Date, bool, error)         { return Date{}, false, nil }
func (l Long) ToTime(bool) (Time, bool, error)         { return Time{}, false, nil }
func (l Long) ToDateTime(bool) (DateTime, bool, error) { return DateTime{}, false, nil }
func (l Long) ToQuantity(bool) (Quantity, bool, error) {
	d, _, _ := l.ToDecimal(true)
	return Quantity{Value: d, Unit: "1"}, true, nil
}

func (l Long) Equal(other Element) (eq bool, ok bool) {
	if o, ok, err := other.ToLong(false); err == nil && ok {
		return l == o, true
	}
	if o, ok := other.(Integer); ok {
		return l == Long(o), true
	}
	if canDelegateNumeric(other) {
		return other.Equal(l)
	}
	return false, true
}

func (l Long) Equivalent(other Element) bool {
	eq, ok := l.Equal(other)
	return ok && eq
}

func (l Long) Cmp(other Element) (cmp int, ok bool, err error) {
	d, _, _ := l.ToDecimal(true)
	cmp, ok, err = d.Cmp(other)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare Long to %T", other)
	}
	return cmp, true, nil
}

func (l Long) Multiply(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		return l.Multiply(ctx, Long(o))
	case Long:
		r, ok := overflow.Mul(int64(l), int64(o))
		if !ok {
			return nil, nil
		}
		return Long(r), nil
	case Decimal:
		d, _, _ := l.ToDecimal(true)
		return d.Multiply(ctx, o)
	}
	return nil, fmt.Errorf("cannot multiply Long with %T", other)
}

func (l Long) Divide(ctx context.Context, other Element) (Element, error) {
	d, _, _ := l.ToDecimal(true)
	return d.Divide(ctx, other)
}

func (l Long) Div(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		return l.Div(ctx, Long(o))
	case Long:
		r, ok := overflow.Div(int64(l), int64(o))
		if !ok {
			return nil, nil
		}
		return Long(r), nil
	case Decimal:
		d, _, _ := l.ToDecimal(true)
		return d.Div(ctx, o)
	}
	return nil, fmt.Errorf("cannot div Long with %T", other)
}

func (l Long) Mod(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		return l.Mod(ctx, Long(o))
	case Long:
		r, ok := overflow.Mod(int64(l), int64(o))
		if !ok {
			return nil, nil
		}
		return Long(r), nil
	case Decimal:
		d, _, _ := l.ToDecimal(true)
		return d.Mod(ctx, o)
	}
	return nil, fmt.Errorf("cannot mod Long with %T", other)
}

func (l Long) Add(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		return l.Add(ctx, Long(o))
	case Long:
		r, ok := overflow.Add(int64(l), int64(o))
		if !ok {
			return nil, nil
		}
		return Long(r), nil
	case Decimal:
		d, _, _ := l.ToDecimal(true)
		return d.Add(ctx, o)
	}
	return nil, fmt.Errorf("cannot add Long and %T", other)
}

func (l Long) Subtract(ctx context.Context, other Element) (Element, error) {
	switch o := other.(type) {
	case Integer:
		return l.Subtract(ctx, Long(o))
	case Long:
		r, ok := overflow.Sub(int64(l), int64(o))
		if !ok {
			return nil, nil
		}
		return Long(r), nil
	case Decimal:
		d, _, _ := l.ToDecimal(true)
		return d.Subtract(ctx, o)
	}
	return nil, fmt.Errorf("cannot subtract %T from Long", other)
}

func (l Long) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "Long", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (l Long) MarshalJSON() ([]byte, error) { return json.Marshal(int64(l)) }
func (l Long) String() string               { return strconv.FormatInt(int64(l), 10) }
