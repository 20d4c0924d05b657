package value

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// DateTimePrecision is the granularity a DateTime literal was specified at.
type DateTimePrecision int

const (
	DateTimePrecisionYear DateTimePrecision = iota
	DateTimePrecisionMonth
	DateTimePrecisionDay
	DateTimePrecisionHour
	DateTimePrecisionMinute
	DateTimePrecisionSecond
	DateTimePrecisionMillisecond
)

var dateTimeLiteralPattern = regexp.MustCompile(
	`^@?(\d{4})(-(\d{2})(-(\d{2})(T(\d{2})(:(\d{2})(:(\d{2})(\.(\d+))?)?)?(Z|[+-]\d{2}:\d{2})?)?)?)?$`,
)

// DateTime is System.DateTime: an instant with calendar precision and an
// optional zone offset (absent zone means "unknown", not UTC).
type DateTime struct {
	defaultConversionError[DateTime]
	Value       time.Time
	Precision   DateTimePrecision
	HasTimeZone bool
}

// ParseDateTime parses an `@YYYY[-MM[-DDT...]]` literal with an optional
// trailing `Z` or `+hh:mm`/`-hh:mm` zone.
func ParseDateTime(s string) (DateTime, error) {
	m := dateTimeLiteralPattern.FindStringSubmatch(s)
	if m == nil {
		return DateTime{}, fmt.Errorf("invalid datetime literal %q", s)
	}
	year, month, day := m[1], m[3], m[5]
	hour, min, sec, ms, zone := m[7], m[9], m[11], m[13], m[14]

	loc := time.UTC
	hasZone := zone != ""
	if zone != "" && zone != "Z" {
		var err error
		loc, err = parseZoneOffset(zone)
		if err != nil {
			return DateTime{}, err
		}
	}

	switch {
	case hour != "":
		if min == "" {
			min = "00"
		}
		if sec == "" {
			sec = "00"
		}
		if ms == "" {
			ms = "000"
		}
		layout := "2006-01-02T15:04:05.000"
		t, err := time.ParseInLocation(layout, fmt.Sprintf("%s-%s-%sT%s:%s:%s.%s", year, month, day, hour, min, sec, padMillis(ms)), loc)
		if err != nil {
			return DateTime{}, err
		}
		precision := DateTimePrecisionHour
		switch {
		case m[13] != "":
			precision = DateTimePrecisionMillisecond
		case m[11] != "":
			precision = DateTimePrecisionSecond
		case m[9] != "":
			precision = DateTimePrecisionMinute
		}
		return DateTime{Value: t, Precision: precision, HasTimeZone: hasZone}, nil
	case day != "":
		t, err := time.ParseInLocation("2006-01-02", fmt.Sprintf("%s-%s-%s", year, month, day), loc)
		if err != nil {
			return DateTime{}, err
		}
		return DateTime{Value: t, Precision: DateTimePrecisionDay, HasTimeZone: hasZone}, nil
	case month != "":
		t, err := time.ParseInLocation("2006-01", fmt.Sprintf("%s-%s", year, month), loc)
		if err != nil {
			return DateTime{}, err
		}
		return DateTime{Value: t, Precision: DateTimePrecisionMonth, HasTimeZone: hasZone}, nil
	default:
		t, err := time.ParseInLocation("2006", year, loc)
		if err != nil {
			return DateTime{}, err
		}
		return DateTime{Value: t, Precision: DateTimePrecisionYear, HasTimeZone: hasZone}, nil
	}
}

func parseZoneOffset(z string) (*time.Location, error) {
	var sign int
	switch z[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("invalid zone offset %q", z)
	}
	var h, m int
	if _, err := fmt.Sscanf(z[1:], "%02d:%02d", &h, &m); err != nil {
		return nil, err
	}
	return time.FixedZone(z, sign*(h*3600+m*60)), nil
}

func (dt DateTime) Children(name ...string) Collection { return nil }

func (dt DateTime) ToString(bool) (String, bool, error) { return String(dt.String()), true, nil }
func (dt DateTime) ToDateTime(bool) (DateTime, bool, error) { return dt, true, nil }
func (dt DateTime) ToDate(bool) (Date, bool, error) {
	return Date{Value: dt.Value, Precision: dateTimePrecisionToDate(dt.Precision)}, true, nil
}

func (dt DateTime) Equal(other Element) (eq bool, ok bool) {
	if o, ok, err := other.ToDateTime(false); err == nil && ok {
		cmp, cmpOK, err := dt.Cmp(o)
		if err == nil {
			return cmp == 0, cmpOK
		}
	}
	if isStringish(other) {
		return other.Equal(dt)
	}
	return false, true
}

func (dt DateTime) Equivalent(other Element) bool {
	o, ok, err := other.ToDateTime(false)
	if err != nil || !ok {
		return isStringish(other) && other.Equivalent(dt)
	}
	cmp, cmpOK, err := dt.Cmp(o)
	return err == nil && cmpOK && cmp == 0
}

func (dt DateTime) Cmp(other Element) (cmp int, ok bool, err error) {
	o, ok, err := other.ToDateTime(false)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare DateTime to %T", other)
	}
	level := dt.Precision
	if o.Precision < level {
		level = o.Precision
	}
	left, right := dt.Value, o.Value
	if dt.HasTimeZone && o.HasTimeZone {
		right = right.In(left.Location())
	}
	if c := compareDateTimeAtPrecision(left, right, level); c != 0 {
		return c, true, nil
	}
	if dt.Precision != o.Precision {
		return 0, false, nil
	}
	return 0, true, nil
}

func compareDateTimeAtPrecision(a, b time.Time, level DateTimePrecision) int {
	steps := []struct {
		at   DateTimePrecision
		diff func() int
	}{
		{DateTimePrecisionYear, func() int { return compareInts(a.Year(), b.Year()) }},
		{DateTimePrecisionMonth, func() int { return compareInts(int(a.Month()), int(b.Month())) }},
		{DateTimePrecisionDay, func() int { return compareInts(a.Day(), b.Day()) }},
		{DateTimePrecisionHour, func() int { return compareInts(a.Hour(), b.Hour()) }},
		{DateTimePrecisionMinute, func() int { return compareInts(a.Minute(), b.Minute()) }},
		{DateTimePrecisionSecond, func() int { return compareInts(a.Second(), b.Second()) }},
		{DateTimePrecisionMillisecond, func() int { return compareInts(a.Nanosecond(), b.Nanosecond()) }},
	}
	for _, step := range steps {
		if c := step.diff(); c != 0 || step.at == level {
			return c
		}
	}
	return 0
}

func (dt DateTime) Add(ctx context.Context, other Element) (Element, error) { return dt.shift(other, 1) }
func (dt DateTime) Subtract(ctx context.Context, other Element) (Element, error) {
	return dt.shift(other, -1)
}

func (dt DateTime) shift(other Element, sign int) (Element, error) {
	q, ok, err := other.ToQuantity(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot shift DateTime by %T", other)
	}
	unit := normalizeTimeUnit(string(q.Unit))
	if !isTimeUnit(unit) {
		return nil, fmt.Errorf("invalid calendar unit %q for DateTime arithmetic", q.Unit)
	}
	var whole, frac apd.Decimal
	q.Value.Value.Modf(&whole, &frac)
	n, err := whole.Int64()
	if err != nil {
		return nil, fmt.Errorf("quantity value too large for datetime arithmetic: %w", err)
	}
	n *= int64(sign)

	result := dt.Value
	switch unit {
	case unitYear:
		result = addClampedMonths(dt.Value, int(n)*12)
	case unitMonth:
		result = addClampedMonths(dt.Value, int(n))
	case unitWeek:
		result = dt.Value.AddDate(0, 0, int(n)*7)
	case unitDay:
		result = dt.Value.AddDate(0, 0, int(n))
	case unitHour:
		result = dt.Value.Add(time.Duration(n) * time.Hour)
	case unitMinute:
		result = dt.Value.Add(time.Duration(n) * time.Minute)
	case unitSecond:
		result = dt.Value.Add(time.Duration(n) * time.Second)
	case unitMillisecond:
		result = dt.Value.Add(time.Duration(n) * time.Millisecond)
	}
	return DateTime{Value: result, Precision: dt.Precision, HasTimeZone: dt.HasTimeZone}, nil
}

// maxDateTimeDigits is the digit count of a full
// year-month-day-hour-minute-second.millisecond DateTime, and so the
// default requested output precision for LowBoundary/HighBoundary.
const maxDateTimeDigits = 17

// Per FHIRPath's lowBoundary/highBoundary semantics, a DateTime with no
// timezone offset represents every instant its wall-clock reading could
// denote across the full range of real-world offsets; boundary widens
// the hour component by this range before formatting.
const (
	minTimeZoneOffsetHours = -12
	maxTimeZoneOffsetHours = 14
)

// LowBoundary returns the earliest instant consistent with this partial
// DateTime, formatted at precisionDigits digits of output precision (4,
// 6, 8, 10, 12, 14, or 17; nil means the full 17). ok is false for a
// negative or otherwise unachievable precision.
func (dt DateTime) LowBoundary(precisionDigits *int) (DateTime, bool) {
	digits := maxDateTimeDigits
	if precisionDigits != nil {
		digits = *precisionDigits
	}
	if digits < 0 {
		return DateTime{}, false
	}
	return buildDateTimeBoundary(dt, digits, false)
}

// HighBoundary returns the latest instant consistent with this partial
// DateTime.
func (dt DateTime) HighBoundary(precisionDigits *int) (DateTime, bool) {
	digits := maxDateTimeDigits
	if precisionDigits != nil {
		digits = *precisionDigits
	}
	if digits < 0 {
		return DateTime{}, false
	}
	return buildDateTimeBoundary(dt, digits, true)
}

func dateTimePrecisionFromDigits(d int) (DateTimePrecision, bool) {
	switch d {
	case 4:
		return DateTimePrecisionYear, true
	case 6:
		return DateTimePrecisionMonth, true
	case 8:
		return DateTimePrecisionDay, true
	case 10:
		return DateTimePrecisionHour, true
	case 12:
		return DateTimePrecisionMinute, true
	case 14:
		return DateTimePrecisionSecond, true
	case 17:
		return DateTimePrecisionMillisecond, true
	default:
		return 0, false
	}
}

func dateTimeRangeEndpoints(dt DateTime) (time.Time, time.Time) {
	loc := dt.Value.Location()
	year, month, day := dt.Value.Date()
	hour, min, _ := dt.Value.Clock()
	switch dt.Precision {
	case DateTimePrecisionYear:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		end := time.Date(year, time.December, 31, 23, 59, 59, 999_000_000, loc)
		return start, end
	case DateTimePrecisionMonth:
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
		end := time.Date(year, month, lastDay, 23, 59, 59, 999_000_000, loc)
		return start, end
	case DateTimePrecisionDay:
		start := time.Date(year, month, day, 0, 0, 0, 0, loc)
		end := time.Date(year, month, day, 23, 59, 59, 999_000_000, loc)
		return start, end
	case DateTimePrecisionHour:
		start := time.Date(year, month, day, hour, 0, 0, 0, loc)
		end := time.Date(year, month, day, hour, 59, 59, 999_000_000, loc)
		return start, end
	case DateTimePrecisionMinute:
		start := time.Date(year, month, day, hour, min, 0, 0, loc)
		end := time.Date(year, month, day, hour, min, 59, 999_000_000, loc)
		return start, end
	default:
		return dt.Value, dt.Value
	}
}

func buildDateTimeFromTime(t time.Time, precision DateTimePrecision) DateTime {
	loc := t.Location()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	nsec := t.Nanosecond()
	switch precision {
	case DateTimePrecisionYear:
		month, day, hour, min, sec, nsec = time.January, 1, 0, 0, 0, 0
	case DateTimePrecisionMonth:
		day, hour, min, sec, nsec = 1, 0, 0, 0, 0
	case DateTimePrecisionDay:
		hour, min, sec, nsec = 0, 0, 0, 0
	case DateTimePrecisionHour:
		min, sec, nsec = 0, 0, 0
	case DateTimePrecisionMinute:
		sec, nsec = 0, 0
	case DateTimePrecisionSecond:
		nsec = 0
	case DateTimePrecisionMillisecond:
		nsec = alignToMillisecond(nsec)
	}
	return DateTime{Value: time.Date(year, month, day, hour, min, sec, nsec, loc), Precision: precision}
}

func includesTimeComponent(p DateTimePrecision) bool {
	switch p {
	case DateTimePrecisionHour, DateTimePrecisionMinute, DateTimePrecisionSecond, DateTimePrecisionMillisecond:
		return true
	default:
		return false
	}
}

func adjustHourForOffset(hour, offset int) int {
	adj := (hour - offset) % 24
	if adj < 0 {
		adj += 24
	}
	return adj
}

func buildDateTimeBoundary(dt DateTime, digits int, useUpper bool) (DateTime, bool) {
	precision, ok := dateTimePrecisionFromDigits(digits)
	if !ok {
		return DateTime{}, false
	}
	start, end := dateTimeRangeEndpoints(dt)
	anchor := start
	if useUpper {
		anchor = end
	}
	if !dt.HasTimeZone && includesTimeComponent(precision) {
		offset := maxTimeZoneOffsetHours
		if useUpper {
			offset = minTimeZoneOffsetHours
		}
		adjHour := adjustHourForOffset(anchor.Hour(), offset)
		anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), adjHour, anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
	}
	result := buildDateTimeFromTime(anchor, precision)
	result.HasTimeZone = dt.HasTimeZone || includesTimeComponent(result.Precision)
	return result, true
}

func (dt DateTime) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "DateTime", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (dt DateTime) MarshalJSON() ([]byte, error) { return json.Marshal(dt.String()) }
func (dt DateTime) String() string {
	s := "@"
	switch dt.Precision {
	case DateTimePrecisionYear:
		return s + dt.Value.Format("2006")
	case DateTimePrecisionMonth:
		return s + dt.Value.Format("2006-01")
	case DateTimePrecisionDay:
		return s + dt.Value.Format("2006-01-02")
	default:
		layout := "2006-01-02T15:04:05"
		if dt.Precision == DateTimePrecisionMillisecond {
			layout += ".000"
		}
		out := s + dt.Value.Format(layout)
		if dt.HasTimeZone {
			out += dt.Value.Format("Z07:00")
		}
		return out
	}
}

func dateTimePrecisionToDate(p DateTimePrecision) DatePrecision {
	switch p {
	case DateTimePrecisionYear:
		return DatePrecisionYear
	case DateTimePrecisionMonth:
		return DatePrecisionMonth
	default:
		return DatePrecisionDay
	}
}
