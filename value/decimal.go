package value

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// defaultDecimalPrecision keeps 34 significant digits (roughly
// Decimal128), comfortably exceeding the 18 fractional digits FHIR
// mandates for the decimal datatype even with a large integer part.
const defaultDecimalPrecision uint32 = 34

var defaultAPDContext = apd.BaseContext.WithPrecision(defaultDecimalPrecision)

type apdContextKey struct{}

// WithAPDContext overrides the apd.Context (precision/rounding) used for
// Decimal arithmetic within ctx.
func WithAPDContext(ctx context.Context, apdCtx *apd.Context) context.Context {
	return context.WithValue(ctx, apdContextKey{}, apdCtx)
}

func apdContext(ctx context.Context) *apd.Context {
	if ctx != nil {
		if c, ok := ctx.Value(apdContextKey{}).(*apd.Context); ok && c != nil {
			return c
		}
	}
	return defaultAPDContext
}

// APDContext exposes the effective apd.Context (precision/rounding) for
// ctx, for packages outside value (e.g. registry's math functions) that
// need to perform apd arithmetic consistent with Decimal's own.
func APDContext(ctx context.Context) *apd.Context { return apdContext(ctx) }

// Decimal is System.Decimal, backed by cockroachdb/apd for arbitrary
// precision and to avoid lossy float64 round-tripping on equality.
type Decimal struct {
	defaultConversionError[Decimal]
	Value *apd.Decimal
}

func NewDecimal(v *apd.Decimal) Decimal { return Decimal{Value: v} }

func (d Decimal) Children(name ...string) Collection { return nil }

func (d Decimal) ToBoolean(explicit bool) (Boolean, bool, error) {
	if !explicit {
		return false, false, implicitConversionError[Decimal, Boolean](d)
	}
	switch d.Value.Cmp(apd.New(1, 0)) {
	case 0:
		return true, true, nil
	}
	if d.Value.Cmp(apd.New(0, 0)) == 0 {
		return false, true, nil
	}
	return false, false, nil
}

func (d Decimal) ToString(bool) (String, bool, error)   { return String(d.String()), true, nil }
func (d Decimal) ToDecimal(bool) (Decimal, bool, error) { return d, true, nil }
func (d Decimal) ToQuantity(bool) (Quantity, bool, error) {
	return Quantity{Value: d, Unit: "1"}, true, nil
}

func (d Decimal) Equal(other Element) (eq bool, ok bool) {
	o, ok, err := other.ToDecimal(false)
	if err == nil && ok {
		return d.Value.Cmp(o.Value) == 0, true
	}
	if canDelegateNumeric(other) {
		return other.Equal(d)
	}
	return false, true
}

func (d Decimal) Equivalent(other Element) bool {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return canDelegateNumeric(other) && other.Equivalent(d)
	}
	prec := d.Value.NumDigits()
	if op := o.Value.NumDigits(); op < prec {
		prec = op
	}
	ctx := apd.BaseContext.WithPrecision(uint32(prec))
	var a, b apd.Decimal
	if _, err := ctx.Round(&a, d.Value); err != nil {
		return false
	}
	if _, err := ctx.Round(&b, o.Value); err != nil {
		return false
	}
	return a.Cmp(&b) == 0
}

func (d Decimal) Cmp(other Element) (cmp int, ok bool, err error) {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return 0, false, fmt.Errorf("cannot compare Decimal to %T", other)
	}
	return d.Value.Cmp(o.Value), true, nil
}

func (d Decimal) Multiply(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot multiply Decimal with %T", other)
	}
	var res apd.Decimal
	if _, err := apdContext(ctx).Mul(&res, d.Value, o.Value); err != nil {
		return nil, err
	}
	return Decimal{Value: &res}, nil
}

func (d Decimal) Divide(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot divide Decimal by %T", other)
	}
	if o.Value.IsZero() {
		return nil, nil
	}
	var res apd.Decimal
	if _, err := apdContext(ctx).Quo(&res, d.Value, o.Value); err != nil {
		return nil, err
	}
	return Decimal{Value: &res}, nil
}

func (d Decimal) Div(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot div Decimal by %T", other)
	}
	if o.Value.IsZero() {
		return nil, nil
	}
	var res apd.Decimal
	if _, err := apdContext(ctx).QuoInteger(&res, d.Value, o.Value); err != nil {
		return nil, err
	}
	return Decimal{Value: &res}, nil
}

func (d Decimal) Mod(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot mod Decimal by %T", other)
	}
	if o.Value.IsZero() {
		return nil, nil
	}
	var res apd.Decimal
	if _, err := apdContext(ctx).Rem(&res, d.Value, o.Value); err != nil {
		return nil, err
	}
	return Decimal{Value: &res}, nil
}

func (d Decimal) Add(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot add Decimal and %T", other)
	}
	var res apd.Decimal
	if _, err := apdContext(ctx).Add(&res, d.Value, o.Value); err != nil {
		return nil, err
	}
	return Decimal{Value: &res}, nil
}

func (d Decimal) Subtract(ctx context.Context, other Element) (Element, error) {
	o, ok, err := other.ToDecimal(false)
	if err != nil || !ok {
		return nil, fmt.Errorf("cannot subtract %T from Decimal", other)
	}
	var res apd.Decimal
	if _, err := apdContext(ctx).Sub(&res, d.Value, o.Value); err != nil {
		return nil, err
	}
	return Decimal{Value: &res}, nil
}

// Precision returns the number of fractional digits in the decimal's
// literal representation.
func (d Decimal) Precision() int {
	if d.Value.Exponent < 0 {
		return int(-d.Value.Exponent)
	}
	return 0
}

// LowBoundary returns the inclusive lower bound of the uncertainty
// interval implied by the decimal's precision (half a unit-in-last-place
// below), quantized to outputPrecision fractional digits (default 8).
func (d Decimal) LowBoundary(ctx context.Context, outputPrecision *int) (Decimal, error) {
	return d.boundary(ctx, outputPrecision, apd.RoundFloor, false)
}

// HighBoundary returns the inclusive upper bound of the uncertainty
// interval.
func (d Decimal) HighBoundary(ctx context.Context, outputPrecision *int) (Decimal, error) {
	return d.boundary(ctx, outputPrecision, apd.RoundCeiling, true)
}

func (d Decimal) boundary(ctx context.Context, outputPrecision *int, rounding apd.Rounder, add bool) (Decimal, error) {
	target := 8
	if outputPrecision != nil {
		target = *outputPrecision
	}
	orig := d.Precision()

	calcCtx := *apdContext(ctx)
	calcCtx.Rounding = rounding
	if min := uint32(orig + target + 2); calcCtx.Precision < min {
		calcCtx.Precision = min
	}

	var halfWidth apd.Decimal
	halfWidth.SetFinite(5, -1-int32(orig))

	var result apd.Decimal
	var err error
	if add {
		_, err = calcCtx.Add(&result, d.Value, &halfWidth)
	} else {
		_, err = calcCtx.Sub(&result, d.Value, &halfWidth)
	}
	if err != nil {
		return Decimal{}, err
	}

	var formatted apd.Decimal
	if _, err := calcCtx.Quantize(&formatted, &result, -int32(target)); err != nil {
		return Decimal{}, err
	}
	return Decimal{Value: &formatted}, nil
}

func (d Decimal) TypeInfo() TypeInfo {
	return SimpleTypeInfo{Namespace: "System", Name: "Decimal", BaseType: TypeSpecifier{Namespace: "System", Name: "Any"}}
}
func (d Decimal) MarshalJSON() ([]byte, error) { return json.Marshal(d.Value) }
func (d Decimal) String() string {
	if d.Value == nil {
		return "0"
	}
	return d.Value.Text('f')
}
