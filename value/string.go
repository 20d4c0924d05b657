package value

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// String is System.String: an immutable value, not a Go string alias with
// mutation semantics.
type String string

func (s String) Children(name ...string) Collection { return nil }

func (s String) ToBoolean(explicit bool) (Boolean, bool, error) {
	if !explicit {
		return false, false, implicitConversionError[String, Boolean](s)
	}
	b, ok := stringToBoolean(string(s))
	return b, ok, nil
}

func (s String) ToString(explicit bool) (String, bool, error) { return s, true, nil }

func (s String) ToInteger(explicit bool) (Integer, bool, error) {
	if !explicit {
		return 0, false, implicitConversionError[String, Integer](s)
	}
	v, err := strconv.ParseInt(string(s), 10, 32)
	if err != nil {
		return 0, false, nil
	}
	return Integer(v), true, nil
}

func (s String) ToLong(explicit bool) (Long, bool, error) {
	if !explicit {
		return 0, false, implicitConversionError[String, Long](s)
	}
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return Long(v), true, nil
}

func (s String) ToDecimal(explicit bool) (Decimal, bool, error) {
	if !explicit {
		return Decimal{}, false, implicitConversionError[String, Decimal](s)
	}
	d, _, err := apd.NewFromString(string(s))
	if err != nil {
		return Decimal{}, false, nil
	}
	return Decimal{Value: d}, true, nil
}

func (s String) ToDate(explicit bool) (Date, bool, error) {
	if !explicit {
		return Date{}, false, implicitConversionError[String, Date](s)
	}
	d, err := ParseDate(string(s))
	if err != nil {
		return Date{}, false, nil
	}
	return d, true, nil
}

func (s String) ToTime(explicit bool) (Time, bool, error) {
	if !explicit {
		return Time{}, false, implicitConversionError[String, Time](s)
	}
	t, err := ParseTime(string(s))
	if err != nil {
		return Time{}, false, nil
	}
	return t, true, nil
}

func (s String) ToDateTime(explicit bool) (DateTime, bool, error) {
	if !explicit {
		return DateTime{}, false, implicitConversionError[String, DateTime](s)
	}
	dt, err := ParseDateTime(string(s))
	if err != nil {
		return DateTime{}, false, nil
	}
	return dt, true, nil
}

func (s String) ToQuantity(bool) (Quantity, bool, error) {
	q, err := ParseQuantity(string(s))
	if err != nil {
		return Quantity{}, false, nil
	}
	return q, true, nil
}

func (s String) Equal(other Element) (eq bool, ok bool) {
	o, ok, err := other.ToString(false)
	if err == nil && ok {
		return s == o, true
	}
	return false, ok && err == nil
}

var whitespaceRunRegex = regexp.MustCompile(`[\t\r\n]+`)

func (s String) Equivalent(other Element) bool {
	o, ok, err := other.ToString(false)
	if err != nil || !ok {
		return false
	}
	norm := func(v String) string {
		return whitespaceRunRegex.ReplaceAllString(strings.ToLower(string(v)), " ")
	}
	return norm(s) == norm(o)
}

func (s String) Cmp(other Element) (cmp int, ok bool, err error) {
	o, ok, err := other.ToString(false)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare String to %T", other)
	}
	return strings.Compare(string(s), string(o)), true, nil
}

func (s String) Add(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToString(false)
	if err != nil {
		return nil, fmt.Errorf("cannot add %T to String", other)
	}
	if !ok {
		return nil, nil
	}
	return s + o, nil
}

func (s String) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "String", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}

func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }
func (s String) String() string               { return fmt.Sprintf("'%s'", string(s)) }

var stringEscapeUnescaper = strings.NewReplacer(
	`\'`, `'`,
	"\\`", "`",
	`\/`, `/`,
	`\\`, `\`,
	`\"`, `"`,
	`\r`, "\r",
	`\n`, "\n",
	`\t`, "\t",
	`\f`, "\f",
)

// Unescape expands FHIRPath string escapes. Lexical scanning already
// handles this for literals encountered mid-parse (internal/lexer); this
// entry point exists for callers that construct String values from raw
// source text outside the tokenizer (e.g. `%'...'` external constants).
func Unescape(s string) string {
	return stringEscapeUnescaper.Replace(s)
}
