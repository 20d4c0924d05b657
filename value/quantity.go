package value

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

const (
	unitYearWord        = "year"
	unitYearsWord       = "years"
	unitMonthWord       = "month"
	unitMonthsWord      = "months"
	unitWeekWord        = "week"
	unitWeeksWord       = "weeks"
	unitDayWord         = "day"
	unitDaysWord        = "days"
	unitHourWord        = "hour"
	unitHoursWord       = "hours"
	unitMinuteWord      = "minute"
	unitMinutesWord     = "minutes"
	unitSecondWord      = "second"
	unitSecondsWord     = "seconds"
	unitMillisecondWord = "millisecond"
)

// Quantity is System.Quantity: a decimal magnitude paired with a UCUM (or
// FHIRPath calendar-keyword) unit.
type Quantity struct {
	defaultConversionError[Quantity]
	Value Decimal
	Unit  String
}

var quantityLiteralPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*(?:'([^']*)'|([A-Za-z]+))?\s*$`)

// ParseQuantity parses a FHIRPath quantity literal: a number optionally
// followed by a quoted UCUM unit or a bare calendar-duration keyword.
func ParseQuantity(s string) (Quantity, error) {
	m := quantityLiteralPattern.FindStringSubmatch(s)
	if m == nil {
		return Quantity{}, fmt.Errorf("cannot parse quantity %q", s)
	}
	v, _, err := apd.NewFromString(m[1])
	if err != nil {
		return Quantity{}, err
	}
	quoted, bare := m[2], m[3]
	unit := quoted
	if unit == "" && bare != "" {
		// A bare, unquoted suffix is only legal as one of FHIRPath's
		// calendar-duration keywords (year, month, ..., millisecond); any
		// other bare word (e.g. "m" for metre) is ambiguous with a UCUM
		// code and is rejected rather than silently treated as one, since
		// UCUM units must be quoted in a quantity literal.
		if !isCalendarLiteralUnit(String(bare)) {
			return Quantity{}, fmt.Errorf("ambiguous unquoted unit suffix %q in quantity %q", bare, s)
		}
		unit = bare
	}
	if unit == "" {
		unit = "1"
	}
	return Quantity{Value: Decimal{Value: v}, Unit: String(unit)}, nil
}

func (q Quantity) Children(name ...string) Collection { return nil }

func (q Quantity) ToString(bool) (String, bool, error) { return String(q.String()), true, nil }
func (q Quantity) ToQuantity(bool) (Quantity, bool, error) { return q, true, nil }

func (q Quantity) Equal(other Element) (eq bool, ok bool) {
	o, ok, err := other.ToQuantity(false)
	if err == nil && ok {
		leftOrigUnit, rightOrigUnit := q.Unit, o.Unit
		left, right := q.canonicalizeUnit(), o.canonicalizeUnit()
		if calendarEqualityRestricted(leftOrigUnit, rightOrigUnit, left.Unit) {
			// Calendar-duration quantities (years/months) are incomparable
			// to the corresponding UCUM definite durations ('a', 'mo').
			return false, false
		}
		converted, convErr := convertQuantityToUnit(context.Background(), right, left.Unit)
		if convErr != nil {
			return false, false
		}
		eq, eqOK := left.Value.Equal(converted.Value)
		return eq && eqOK, true
	}
	if isStringish(other) {
		return other.Equal(q)
	}
	return false, true
}

func (q Quantity) Equivalent(other Element) bool {
	o, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return false
	}
	left, right := q.canonicalizeUnit(), o.canonicalizeUnit()
	converted, convErr := convertQuantityToUnit(context.Background(), right, left.Unit)
	if convErr != nil {
		return false
	}
	return left.Value.Equivalent(converted.Value)
}

func (q Quantity) Cmp(other Element) (cmp int, ok bool, err error) {
	o, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare Quantity to %T", other)
	}
	left, right := q.canonicalizeUnit(), o.canonicalizeUnit()
	converted, convErr := convertQuantityToUnit(context.Background(), right, left.Unit)
	if convErr != nil {
		return 0, false, fmt.Errorf("quantity units do not match, left: %v right: %v", left, right)
	}
	return left.Value.Cmp(converted.Value)
}

func (q Quantity) Multiply(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot multiply Quantity with %T", other)
	}
	left, right := q.canonicalizeUnit(), o.canonicalizeUnit()
	value, err := left.Value.Multiply(ctx, right.Value)
	if err != nil {
		return nil, err
	}
	return Quantity{Value: value.(Decimal), Unit: formatProductUnit(left.Unit, right.Unit)}, nil
}

func (q Quantity) Divide(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot divide Quantity by %T", other)
	}
	left, right := q.canonicalizeUnit(), o.canonicalizeUnit()
	value, err := left.Value.Divide(ctx, right.Value)
	if err != nil {
		return nil, err
	}
	return Quantity{Value: value.(Decimal), Unit: formatDivisionUnit(left.Unit, right.Unit)}, nil
}

func (q Quantity) Add(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot add Quantity and %T", other)
	}
	left, right := q.canonicalizeUnit(), o.canonicalizeUnit()
	converted, convErr := convertQuantityToUnit(ctx, right, left.Unit)
	if convErr != nil {
		return nil, fmt.Errorf("quantity units do not match, left: %v right: %v", left, right)
	}
	var sum apd.Decimal
	if _, err := apdContext(ctx).Add(&sum, left.Value.Value, converted.Value.Value); err != nil {
		return nil, err
	}
	return Quantity{Value: Decimal{Value: &sum}, Unit: left.Unit}, nil
}

func (q Quantity) Subtract(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot subtract %T from Quantity", other)
	}
	left, right := q.canonicalizeUnit(), o.canonicalizeUnit()
	converted, convErr := convertQuantityToUnit(ctx, right, left.Unit)
	if convErr != nil {
		return nil, fmt.Errorf("quantity units do not match, left: %v right: %v", left, right)
	}
	var diff apd.Decimal
	if _, err := apdContext(ctx).Sub(&diff, left.Value.Value, converted.Value.Value); err != nil {
		return nil, err
	}
	return Quantity{Value: Decimal{Value: &diff}, Unit: left.Unit}, nil
}

func (q Quantity) canonicalizeUnit() Quantity {
	q.Unit = canonicalQuantityUnit(q.Unit)
	return q
}

func canonicalQuantityUnit(unit String) String {
	if unit == "" {
		return "1"
	}
	canonical := canonicalUCUMUnit(string(unit))
	if canonical == "" {
		return "1"
	}
	return String(canonical)
}

// calendarEqualityRestricted reports whether Quantity equality must treat
// its operands as non-comparable (empty result) per FHIRPath's restriction
// on mixing calendar-duration keyword units with the equivalent variable-
// length UCUM unit ('a', 'mo').
func calendarEqualityRestricted(leftOriginal, rightOriginal, canonicalUnit String) bool {
	leftLiteral := isCalendarLiteralUnit(leftOriginal)
	rightLiteral := isCalendarLiteralUnit(rightOriginal)
	if leftLiteral == rightLiteral {
		return false
	}
	return isVariableLengthCalendarUnit(canonicalUnit)
}

func isCalendarLiteralUnit(unit String) bool {
	switch strings.ToLower(string(unit)) {
	case unitYearWord, unitYearsWord, unitMonthWord, unitMonthsWord,
		unitWeekWord, unitWeeksWord, unitDayWord, unitDaysWord,
		unitHourWord, unitHoursWord, unitMinuteWord, unitMinutesWord,
		unitSecondWord, unitSecondsWord, unitMillisecondWord:
		return true
	default:
		return false
	}
}

func isVariableLengthCalendarUnit(unit String) bool {
	switch strings.ToLower(string(unit)) {
	case "a", "mo":
		return true
	default:
		return false
	}
}

func convertQuantityToUnit(ctx context.Context, q Quantity, unit String) (Quantity, error) {
	target := canonicalQuantityUnit(unit)
	q = q.canonicalizeUnit()
	if q.Unit == target {
		return q, nil
	}
	converted, err := convertDecimalUnit(ctx, q.Value.Value, string(q.Unit), string(target))
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: Decimal{Value: converted}, Unit: target}, nil
}

func formatProductUnit(left, right String) String {
	switch {
	case left == "1":
		return right
	case right == "1":
		return left
	}
	return String(fmt.Sprintf("%s.%s", wrapNumerator(left), wrapNumerator(right)))
}

func formatDivisionUnit(numerator, denominator String) String {
	switch {
	case numerator == denominator:
		return "1"
	case denominator == "1":
		return numerator
	case numerator == "1":
		return String(fmt.Sprintf("1/%s", wrapDenominator(denominator)))
	}
	return String(fmt.Sprintf("%s/%s", wrapNumerator(numerator), wrapDenominator(denominator)))
}

func wrapNumerator(u String) string {
	s := string(u)
	if strings.ContainsRune(s, '/') {
		return fmt.Sprintf("(%s)", s)
	}
	return s
}

func wrapDenominator(u String) string {
	s := string(u)
	if strings.ContainsAny(s, "./") {
		return fmt.Sprintf("(%s)", s)
	}
	return s
}

func (q Quantity) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "Quantity", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (q Quantity) MarshalJSON() ([]byte, error) { return json.Marshal(q.String()) }
func (q Quantity) String() string {
	u := strings.TrimSpace(string(q.Unit))
	if u == "" {
		return q.Value.String()
	}
	display := displayQuantityUnit(q.Unit)
	if isCalendarLiteralUnit(q.Unit) {
		return fmt.Sprintf("%s %s", q.Value.String(), display)
	}
	return fmt.Sprintf("%s '%s'", q.Value.String(), display)
}
