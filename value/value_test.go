package value_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octofhir/fhirpath/value"
)

func decimalOf(t *testing.T, s string) value.Decimal {
	t.Helper()
	d, _, err := apd.NewFromString(s)
	require.NoError(t, err)
	return value.Decimal{Value: d}
}

func TestDecimalArithmeticDoesNotShortCircuitOnZero(t *testing.T) {
	ctx := context.Background()
	sum, err := decimalOf(t, "5").Add(ctx, decimalOf(t, "0"))
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, "5", sum.(value.Decimal).String())
}

func TestDecimalBoundaryLaw(t *testing.T) {
	ctx := context.Background()
	d := decimalOf(t, "1.587")

	low, err := d.LowBoundary(ctx, nil)
	require.NoError(t, err)
	high, err := d.HighBoundary(ctx, nil)
	require.NoError(t, err)

	lowCmp, ok, err := low.Cmp(d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.LessOrEqual(t, lowCmp, 0)

	highCmp, ok, err := high.Cmp(d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, highCmp, 0)
}

func TestDecimalBoundaryClampsToOutputPrecision(t *testing.T) {
	ctx := context.Background()
	d := decimalOf(t, "1.587")
	precision := 2
	low, err := d.LowBoundary(ctx, &precision)
	require.NoError(t, err)
	assert.Equal(t, int32(-2), low.Value.Exponent)
}

func TestQuantityRejectsAmbiguousBareUnit(t *testing.T) {
	_, err := value.ParseQuantity("5 m")
	assert.Error(t, err, "bare 'm' is ambiguous with the UCUM code for metre")
}

func TestQuantityAcceptsBareCalendarKeyword(t *testing.T) {
	q, err := value.ParseQuantity("5 days")
	require.NoError(t, err)
	assert.Equal(t, value.String("days"), q.Unit)
}

func TestQuantityAcceptsQuotedUCUMUnit(t *testing.T) {
	q, err := value.ParseQuantity("5 'm'")
	require.NoError(t, err)
	assert.Equal(t, value.String("m"), q.Unit)
}

func TestDateBoundaryWidensToRequestedPrecision(t *testing.T) {
	d := value.Date{Value: time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC), Precision: value.DatePrecisionYear}
	monthDigits := 6

	low, ok := d.LowBoundary(&monthDigits)
	require.True(t, ok)
	assert.Equal(t, value.DatePrecisionMonth, low.Precision)
	assert.Equal(t, time.January, low.Value.Month())

	high, ok := d.HighBoundary(&monthDigits)
	require.True(t, ok)
	assert.Equal(t, time.December, high.Value.Month())

	invalid := 5
	_, ok = d.LowBoundary(&invalid)
	assert.False(t, ok)
}

func TestDateTimeBoundaryAdjustsFloatingOffset(t *testing.T) {
	digits := 17
	floating := value.DateTime{
		Value:       time.Date(2014, time.January, 1, 8, 0, 0, 0, time.UTC),
		Precision:   value.DateTimePrecisionHour,
		HasTimeZone: false,
	}

	low, ok := floating.LowBoundary(&digits)
	require.True(t, ok)
	assert.True(t, low.HasTimeZone)
	assert.Equal(t, 18, low.Value.Hour())

	high, ok := floating.HighBoundary(&digits)
	require.True(t, ok)
	assert.True(t, high.HasTimeZone)
	assert.Equal(t, 20, high.Value.Hour())
}

func TestDateTimeBoundaryPreservesExistingTimeZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	digits := 17
	dt := value.DateTime{
		Value:       time.Date(2014, time.January, 1, 8, 0, 0, 0, loc),
		Precision:   value.DateTimePrecisionHour,
		HasTimeZone: true,
	}

	low, ok := dt.LowBoundary(&digits)
	require.True(t, ok)
	assert.Equal(t, 8, low.Value.Hour())
	assert.Equal(t, 0, low.Value.Minute())

	high, ok := dt.HighBoundary(&digits)
	require.True(t, ok)
	assert.Equal(t, 59, high.Value.Second())
}

func TestTimeBoundaryWidensMinuteToMillisecond(t *testing.T) {
	tm := value.Time{Value: time.Date(0, 1, 1, 10, 30, 0, 0, time.UTC), Precision: value.TimePrecisionMinute}
	digits := 9

	low, ok := tm.LowBoundary(&digits)
	require.True(t, ok)
	assert.Equal(t, 0, low.Value.Second())

	high, ok := tm.HighBoundary(&digits)
	require.True(t, ok)
	assert.Equal(t, 59, high.Value.Second())
}

func TestDateCmpIndeterminateAcrossMismatchedPrecision(t *testing.T) {
	year, err := value.ParseDate("@2020")
	require.NoError(t, err)
	day, err := value.ParseDate("@2020-01-01")
	require.NoError(t, err)

	_, ok, err := year.Cmp(day)
	require.NoError(t, err)
	assert.False(t, ok, "a shared-prefix match at a coarser precision is indeterminate, not equal")
}

func TestDateArithmeticClampsMonthOverflow(t *testing.T) {
	d, err := value.ParseDate("@2024-01-31")
	require.NoError(t, err)
	q, err := value.ParseQuantity("1 month")
	require.NoError(t, err)

	result, err := d.Add(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 29, result.(value.Date).Value.Day(), "Jan 31 + 1 month clamps to Feb's last day in a leap year")
}
