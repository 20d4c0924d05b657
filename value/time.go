package value

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// TimePrecision is the granularity a Time literal was specified at.
type TimePrecision int

const (
	TimePrecisionHour TimePrecision = iota
	TimePrecisionMinute
	TimePrecisionSecond
	TimePrecisionMillisecond
)

const timeFormatFull = "15:04:05.000"

var timeLiteralPattern = regexp.MustCompile(`^@?T(\d{2})(:(\d{2})(:(\d{2})(\.(\d+))?)?)?$`)

// Time is System.Time: a time-of-day with no associated date or zone.
type Time struct {
	defaultConversionError[Time]
	Value     time.Time
	Precision TimePrecision
}

// ParseTime parses a `Thh`, `Thh:mm`, `Thh:mm:ss`, or `Thh:mm:ss.sss`
// literal, with or without the leading `@`.
func ParseTime(s string) (Time, error) {
	m := timeLiteralPattern.FindStringSubmatch(s)
	if m == nil {
		return Time{}, fmt.Errorf("invalid time literal %q", s)
	}
	hour, min, sec, ms := m[1], m[3], m[5], m[7]
	precision := TimePrecisionHour
	if min == "" {
		min = "00"
	} else {
		precision = TimePrecisionMinute
	}
	if sec == "" {
		sec = "00"
	} else {
		precision = TimePrecisionSecond
	}
	if ms != "" {
		precision = TimePrecisionMillisecond
	} else {
		ms = "000"
	}
	t, err := time.Parse(timeFormatFull, fmt.Sprintf("%s:%s:%s.%s", hour, min, sec, padMillis(ms)))
	if err != nil {
		return Time{}, err
	}
	return Time{Value: t, Precision: precision}, nil
}

func padMillis(ms string) string {
	for len(ms) < 3 {
		ms += "0"
	}
	return ms[:3]
}

func (t Time) Children(name ...string) Collection { return nil }

func (t Time) ToString(bool) (String, bool, error) { return String(t.String()), true, nil }
func (t Time) ToTime(bool) (Time, bool, error)      { return t, true, nil }

func (t Time) Equal(other Element) (eq bool, ok bool) {
	o, ok, err := other.ToTime(false)
	if err == nil && ok {
		cmp, cmpOK, err := t.Cmp(o)
		if err == nil {
			return cmp == 0, cmpOK
		}
	}
	if isStringish(other) {
		return other.Equal(t)
	}
	return false, true
}

func (t Time) Equivalent(other Element) bool {
	o, ok, err := other.ToTime(false)
	if err != nil || !ok {
		return isStringish(other) && other.Equivalent(t)
	}
	cmp, cmpOK, err := t.Cmp(o)
	return err == nil && cmpOK && cmp == 0
}

func (t Time) Cmp(other Element) (cmp int, ok bool, err error) {
	o, ok, err := other.ToTime(false)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare Time to %T", other)
	}
	level := t.Precision
	if o.Precision < level {
		level = o.Precision
	}
	if c := compareTimeAtPrecision(t.Value, o.Value, level); c != 0 {
		return c, true, nil
	}
	if t.Precision != o.Precision {
		return 0, false, nil
	}
	return 0, true, nil
}

func compareTimeAtPrecision(a, b time.Time, level TimePrecision) int {
	if c := compareInts(a.Hour(), b.Hour()); c != 0 || level == TimePrecisionHour {
		return c
	}
	if c := compareInts(a.Minute(), b.Minute()); c != 0 || level == TimePrecisionMinute {
		return c
	}
	if c := compareInts(a.Second(), b.Second()); c != 0 || level == TimePrecisionSecond {
		return c
	}
	return compareInts(a.Nanosecond(), b.Nanosecond())
}

func (t Time) Add(ctx context.Context, other Element) (Element, error) { return t.shift(other, 1) }
func (t Time) Subtract(ctx context.Context, other Element) (Element, error) {
	return t.shift(other, -1)
}

func (t Time) shift(other Element, sign int) (Element, error) {
	q, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot shift Time by %T", other)
	}
	unit := normalizeTimeUnit(string(q.Unit))
	var whole, frac apd.Decimal
	q.Value.Value.Modf(&whole, &frac)
	n, err := whole.Int64()
	if err != nil {
		return nil, fmt.Errorf("quantity value too large for time arithmetic: %w", err)
	}
	n *= int64(sign)

	var dur time.Duration
	switch unit {
	case unitHour:
		dur = time.Duration(n) * time.Hour
	case unitMinute:
		dur = time.Duration(n) * time.Minute
	case unitSecond:
		dur = time.Duration(n) * time.Second
	case unitMillisecond:
		dur = time.Duration(n) * time.Millisecond
	default:
		return nil, fmt.Errorf("unit %q is not a valid Time calendar unit", q.Unit)
	}
	return Time{Value: t.Value.Add(dur), Precision: t.Precision}, nil
}

// maxTimeDigits is the digit count of a full hour:minute:second.millisecond
// Time, and so the default requested output precision for
// LowBoundary/HighBoundary.
const maxTimeDigits = 9

// LowBoundary returns the earliest instant consistent with this partial
// time, formatted at precisionDigits digits of output precision (2, 4, 6,
// or 9; nil means the full 9). ok is false for a negative or otherwise
// unachievable precision.
func (t Time) LowBoundary(precisionDigits *int) (Time, bool) {
	digits := maxTimeDigits
	if precisionDigits != nil {
		digits = *precisionDigits
	}
	if digits < 0 {
		return Time{}, false
	}
	return buildTimeBoundary(t, digits, false)
}

// HighBoundary returns the latest instant consistent with this partial time.
func (t Time) HighBoundary(precisionDigits *int) (Time, bool) {
	digits := maxTimeDigits
	if precisionDigits != nil {
		digits = *precisionDigits
	}
	if digits < 0 {
		return Time{}, false
	}
	return buildTimeBoundary(t, digits, true)
}

func timePrecisionFromDigits(d int) (TimePrecision, bool) {
	switch d {
	case 2:
		return TimePrecisionHour, true
	case 4:
		return TimePrecisionMinute, true
	case 6:
		return TimePrecisionSecond, true
	case 9:
		return TimePrecisionMillisecond, true
	default:
		return 0, false
	}
}

// timeRangeEndpoints returns the earliest and latest instant (at
// millisecond resolution) consistent with t's own stored precision; a
// Time with hour or minute precision widens out to the rest of that hour
// or minute, while second and millisecond precision are already exact.
func timeRangeEndpoints(t Time) (time.Time, time.Time) {
	loc := t.Value.Location()
	hour, min, _ := t.Value.Clock()
	switch t.Precision {
	case TimePrecisionHour:
		start := time.Date(0, 1, 1, hour, 0, 0, 0, loc)
		end := time.Date(0, 1, 1, hour, 59, 59, 999_000_000, loc)
		return start, end
	case TimePrecisionMinute:
		start := time.Date(0, 1, 1, hour, min, 0, 0, loc)
		end := time.Date(0, 1, 1, hour, min, 59, 999_000_000, loc)
		return start, end
	default:
		return t.Value, t.Value
	}
}

func buildTimeFromTime(t time.Time, precision TimePrecision) Time {
	loc := t.Location()
	hour, min, sec := t.Clock()
	nsec := t.Nanosecond()
	switch precision {
	case TimePrecisionHour:
		min, sec, nsec = 0, 0, 0
	case TimePrecisionMinute:
		sec, nsec = 0, 0
	case TimePrecisionSecond:
		nsec = 0
	case TimePrecisionMillisecond:
		nsec = alignToMillisecond(nsec)
	}
	return Time{Value: time.Date(0, 1, 1, hour, min, sec, nsec, loc), Precision: precision}
}

func buildTimeBoundary(t Time, digits int, useUpper bool) (Time, bool) {
	precision, ok := timePrecisionFromDigits(digits)
	if !ok {
		return Time{}, false
	}
	start, end := timeRangeEndpoints(t)
	anchor := start
	if useUpper {
		anchor = end
	}
	return buildTimeFromTime(anchor, precision), true
}

func alignToMillisecond(nsec int) int {
	const ms = int(time.Millisecond)
	return (nsec / ms) * ms
}

func (t Time) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "Time", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (t Time) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }
func (t Time) String() string {
	switch t.Precision {
	case TimePrecisionHour:
		return "T" + t.Value.Format("15")
	case TimePrecisionMinute:
		return "T" + t.Value.Format("15:04")
	case TimePrecisionSecond:
		return "T" + t.Value.Format("15:04:05")
	default:
		return "T" + t.Value.Format(timeFormatFull)
	}
}
