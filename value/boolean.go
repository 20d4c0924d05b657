package value

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Boolean is System.Boolean.
type Boolean bool

func (b Boolean) Children(name ...string) Collection { return nil }

func (b Boolean) ToBoolean(explicit bool) (Boolean, bool, error) { return b, true, nil }

func (b Boolean) ToString(explicit bool) (String, bool, error) {
	if explicit {
		return String(b.String()), true, nil
	}
	return "", false, implicitConversionError[Boolean, String](b)
}

func (b Boolean) ToInteger(explicit bool) (Integer, bool, error) {
	if !explicit {
		return 0, false, implicitConversionError[Boolean, Integer](b)
	}
	if b {
		return 1, true, nil
	}
	return 0, true, nil
}

func (b Boolean) ToLong(explicit bool) (Long, bool, error) {
	if !explicit {
		return 0, false, implicitConversionError[Boolean, Long](b)
	}
	if b {
		return 1, true, nil
	}
	return 0, true, nil
}

func (b Boolean) ToDecimal(explicit bool) (Decimal, bool, error) {
	if !explicit {
		return Decimal{}, false, implicitConversionError[Boolean, Decimal](b)
	}
	if b {
		return Decimal{Value: apd.New(1, 0)}, true, nil
	}
	return Decimal{Value: apd.New(0, 0)}, true, nil
}

func (b Boolean) ToDate(bool) (Date, bool, error)         { return Date{}, false, nil }
func (b Boolean) ToTime(bool) (Time, bool, error)         { return Time{}, false, nil }
func (b Boolean) ToDateTime(bool) (DateTime, bool, error) { return DateTime{}, false, nil }

func (b Boolean) ToQuantity(explicit bool) (Quantity, bool, error) {
	if !explicit {
		return Quantity{}, false, nil
	}
	d, _, _ := b.ToDecimal(true)
	return Quantity{Value: d, Unit: "1"}, true, nil
}

func (b Boolean) Equal(other Element) (eq bool, ok bool) {
	if o, ok, err := other.ToBoolean(false); err == nil && ok {
		return b == o, true
	}
	if isStringish(other) {
		return other.Equal(b)
	}
	return false, true
}

func (b Boolean) Equivalent(other Element) bool {
	eq, ok := b.Equal(other)
	return ok && eq
}

func (b Boolean) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "Boolean", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}

func (b Boolean) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }
func (b Boolean) String() string               { return strconv.FormatBool(bool(b)) }

// And implements FHIRPath's 3-valued `and`, where either operand being
// Empty only forces an Empty result if it would otherwise be ambiguous.
func And(left, right Collection) Collection {
	lb, lok := singletonBool(left)
	rb, rok := singletonBool(right)
	switch {
	case lok && !bool(lb):
		return Collection{Boolean(false)}
	case rok && !bool(rb):
		return Collection{Boolean(false)}
	case lok && rok:
		return Collection{Boolean(lb && rb)}
	default:
		return nil
	}
}

// Or implements 3-valued `or`.
func Or(left, right Collection) Collection {
	lb, lok := singletonBool(left)
	rb, rok := singletonBool(right)
	switch {
	case lok && bool(lb):
		return Collection{Boolean(true)}
	case rok && bool(rb):
		return Collection{Boolean(true)}
	case lok && rok:
		return Collection{Boolean(lb || rb)}
	default:
		return nil
	}
}

// Xor implements 3-valued `xor`: empty propagates unless both sides are
// known, since the result is ambiguous whenever either operand is unknown.
func Xor(left, right Collection) Collection {
	lb, lok := singletonBool(left)
	rb, rok := singletonBool(right)
	if !lok || !rok {
		return nil
	}
	return Collection{Boolean(lb != rb)}
}

// Implies implements 3-valued `implies`.
func Implies(left, right Collection) Collection {
	lb, lok := singletonBool(left)
	rb, rok := singletonBool(right)
	switch {
	case lok && !bool(lb):
		return Collection{Boolean(true)}
	case rok && bool(rb):
		return Collection{Boolean(true)}
	case lok && rok:
		return Collection{Boolean(!lb || rb)}
	case !lok && rok && !bool(rb):
		return nil
	default:
		return nil
	}
}

// Not implements the `not()` function's 3-valued negation.
func Not(operand Collection) Collection {
	b, ok := singletonBool(operand)
	if !ok {
		return nil
	}
	return Collection{Boolean(!b)}
}

func singletonBool(c Collection) (Boolean, bool) {
	if len(c) != 1 {
		return false, false
	}
	b, ok, err := c[0].ToBoolean(false)
	if err != nil || !ok {
		return false, false
	}
	return b, true
}

var truthyStrings = []string{"true", "t", "yes", "y", "1", "1.0"}
var falsyStrings = []string{"false", "f", "no", "n", "0", "0.0"}

func stringToBoolean(s string) (Boolean, bool) {
	lower := strings.ToLower(s)
	if slices.Contains(truthyStrings, lower) {
		return true, true
	}
	if slices.Contains(falsyStrings, lower) {
		return false, true
	}
	return false, false
}
