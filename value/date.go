package value

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// DatePrecision is the granularity a partial Date literal was written at.
type DatePrecision int

const (
	DatePrecisionYear DatePrecision = iota
	DatePrecisionMonth
	DatePrecisionDay
)

const (
	dateFormatYear  = "2006"
	dateFormatMonth = "2006-01"
	dateFormatDay   = "2006-01-02"
)

var dateLiteralPattern = regexp.MustCompile(`^@?(\d{4})(-(\d{2})(-(\d{2}))?)?$`)

// Date is System.Date: a calendar date carrying the precision it was
// specified at. Partial dates are first-class values, not errors.
type Date struct {
	defaultConversionError[Date]
	Value     time.Time
	Precision DatePrecision
}

// ParseDate parses a `YYYY`, `YYYY-MM`, or `YYYY-MM-DD` literal, with or
// without a leading `@`.
func ParseDate(s string) (Date, error) {
	m := dateLiteralPattern.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("invalid date literal %q", s)
	}
	switch {
	case m[4] != "":
		t, err := time.Parse(dateFormatDay, m[1]+m[2]+m[4])
		if err != nil {
			return Date{}, err
		}
		return Date{Value: t, Precision: DatePrecisionDay}, nil
	case m[2] != "":
		t, err := time.Parse(dateFormatMonth, m[1]+m[2])
		if err != nil {
			return Date{}, err
		}
		return Date{Value: t, Precision: DatePrecisionMonth}, nil
	default:
		t, err := time.Parse(dateFormatYear, m[1])
		if err != nil {
			return Date{}, err
		}
		return Date{Value: t, Precision: DatePrecisionYear}, nil
	}
}

func (d Date) Children(name ...string) Collection { return nil }

func (d Date) ToString(bool) (String, bool, error) { return String(d.String()), true, nil }
func (d Date) ToDate(bool) (Date, bool, error)      { return d, true, nil }
func (d Date) ToDateTime(bool) (DateTime, bool, error) {
	return DateTime{Value: d.Value, Precision: datePrecisionToDateTime(d.Precision)}, true, nil
}

func (d Date) Equal(other Element) (eq bool, ok bool) {
	if o, ok, err := other.ToDate(false); err == nil && ok {
		cmp, cmpOK, err := d.Cmp(o)
		if err == nil {
			return cmp == 0, cmpOK
		}
	}
	if delegatesToDateTime(other) || isStringish(other) {
		return other.Equal(d)
	}
	return false, true
}

func (d Date) Equivalent(other Element) bool {
	o, ok, err := other.ToDate(false)
	if err != nil || !ok {
		return (delegatesToDateTime(other) || isStringish(other)) && other.Equivalent(d)
	}
	cmp, cmpOK, err := d.Cmp(o)
	return err == nil && cmpOK && cmp == 0
}

// Cmp compares at the coarser of the two precisions; if the shared prefix
// matches but one side carries unknown finer detail, the comparison is
// indeterminate (ok=false) per FHIRPath's temporal semantics.
func (d Date) Cmp(other Element) (cmp int, ok bool, err error) {
	o, ok, err := other.ToDate(false)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare Date to %T", other)
	}
	level := d.Precision
	if o.Precision < level {
		level = o.Precision
	}
	if c := compareAtPrecision(d.Value, o.Value, level); c != 0 {
		return c, true, nil
	}
	if d.Precision != o.Precision {
		return 0, false, nil
	}
	return 0, true, nil
}

func compareAtPrecision(a, b time.Time, level DatePrecision) int {
	if c := compareInts(a.Year(), b.Year()); c != 0 || level == DatePrecisionYear {
		return c
	}
	if c := compareInts(int(a.Month()), int(b.Month())); c != 0 || level == DatePrecisionMonth {
		return c
	}
	return compareInts(a.Day(), b.Day())
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (d Date) Add(ctx context.Context, other Element) (Element, error) {
	return d.shift(other, 1)
}

func (d Date) Subtract(ctx context.Context, other Element) (Element, error) {
	return d.shift(other, -1)
}

func (d Date) shift(other Element, sign int) (Element, error) {
	q, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot shift Date by %T", other)
	}
	unit := normalizeTimeUnit(string(q.Unit))
	if !isTimeUnit(unit) {
		return nil, fmt.Errorf("invalid calendar unit %q for Date arithmetic", q.Unit)
	}
	var whole, frac apd.Decimal
	q.Value.Value.Modf(&whole, &frac)
	n, err := whole.Int64()
	if err != nil {
		return nil, fmt.Errorf("quantity value too large for date arithmetic: %w", err)
	}
	n *= int64(sign)

	result := d.Value
	switch unit {
	case unitYear:
		result = addClampedMonths(d.Value, int(n)*12)
	case unitMonth:
		result = addClampedMonths(d.Value, int(n))
	case unitWeek:
		result = d.Value.AddDate(0, 0, int(n)*7)
	case unitDay:
		result = d.Value.AddDate(0, 0, int(n))
	default:
		return nil, fmt.Errorf("unit %q is not a valid Date calendar unit", q.Unit)
	}
	return Date{Value: result, Precision: d.Precision}, nil
}

// addClampedMonths adds n months, then clamps the day-of-month down to the
// last valid day of the resulting month (FHIRPath's overflow rule for
// month/year arithmetic on short months).
func addClampedMonths(t time.Time, n int) time.Time {
	result := t.AddDate(0, n, 0)
	if result.Day() < t.Day() {
		result = result.AddDate(0, 0, -result.Day())
	}
	return result
}

func (d Date) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "Date", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }
func (d Date) String() string {
	switch d.Precision {
	case DatePrecisionYear:
		return d.Value.Format(dateFormatYear)
	case DatePrecisionMonth:
		return d.Value.Format(dateFormatMonth)
	default:
		return d.Value.Format(dateFormatDay)
	}
}

// maxDateDigits is the digit count of a full year-month-day date (the
// "precision()" of a day-precision Date), and so the default requested
// output precision for LowBoundary/HighBoundary.
const maxDateDigits = 8

// LowBoundary returns the earliest instant consistent with this partial
// date (e.g. `@2020` → `2020-01-01`), formatted at precisionDigits digits
// of output precision (4, 6, or 8; nil means the full 8). ok is false for
// a negative or otherwise unachievable precision.
func (d Date) LowBoundary(precisionDigits *int) (Date, bool) {
	digits := maxDateDigits
	if precisionDigits != nil {
		digits = *precisionDigits
	}
	if digits < 0 {
		return Date{}, false
	}
	return buildDateBoundary(d, digits, false)
}

// HighBoundary returns the latest instant consistent with this partial date.
func (d Date) HighBoundary(precisionDigits *int) (Date, bool) {
	digits := maxDateDigits
	if precisionDigits != nil {
		digits = *precisionDigits
	}
	if digits < 0 {
		return Date{}, false
	}
	return buildDateBoundary(d, digits, true)
}

func datePrecisionFromDigits(d int) (DatePrecision, bool) {
	switch d {
	case 4:
		return DatePrecisionYear, true
	case 6:
		return DatePrecisionMonth, true
	case 8:
		return DatePrecisionDay, true
	default:
		return 0, false
	}
}

func buildDateBoundary(d Date, digits int, useUpper bool) (Date, bool) {
	precision, ok := datePrecisionFromDigits(digits)
	if !ok {
		return Date{}, false
	}
	anchor := rangeStart(d)
	if useUpper {
		anchor = rangeEnd(d)
	}
	return buildDateFromTime(anchor, precision), true
}

func rangeStart(d Date) time.Time {
	y, m, _ := d.Value.Date()
	loc := d.Value.Location()
	switch d.Precision {
	case DatePrecisionYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case DatePrecisionMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return d.Value
	}
}

func rangeEnd(d Date) time.Time {
	y, m, day := d.Value.Date()
	loc := d.Value.Location()
	switch d.Precision {
	case DatePrecisionYear:
		return time.Date(y, time.December, 31, 0, 0, 0, 0, loc)
	case DatePrecisionMonth:
		lastDay := time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
		return time.Date(y, m, lastDay, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, day, 0, 0, 0, 0, loc)
	}
}

func buildDateFromTime(t time.Time, precision DatePrecision) Date {
	return Date{Value: t, Precision: precision}
}

func datePrecisionToDateTime(p DatePrecision) DateTimePrecision {
	switch p {
	case DatePrecisionYear:
		return DateTimePrecisionYear
	case DatePrecisionMonth:
		return DateTimePrecisionMonth
	default:
		return DateTimePrecisionDay
	}
}
