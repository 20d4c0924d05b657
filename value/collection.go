package value

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Collection is the FHIRPath ordered sequence of values. It is never
// nested: constructors flatten as they build, per the value model's
// invariant that a Collection is never directly nested inside another.
type Collection []Element

// Singleton wraps a single value as a one-element Collection.
func Singleton(e Element) Collection { return Collection{e} }

// Equal implements structural, type-strict equality with 3-valued
// semantics: ok=false means "empty" (indeterminate), per FHIRPath's
// equality-on-empty-operand rule.
func (c Collection) Equal(other Collection) (eq bool, ok bool) {
	if len(c) == 0 || len(other) == 0 {
		return false, false
	}
	if len(c) != len(other) {
		return false, true
	}
	for i, e := range c {
		eq, ok := e.Equal(other[i])
		if !ok || !eq {
			return false, ok
		}
	}
	return true, true
}

// Equivalent implements `~`: unordered, case/whitespace-insensitive for
// strings, never indeterminate (empty ~ empty is true).
func (c Collection) Equivalent(other Collection) bool {
	if len(c) != len(other) {
		return false
	}
outer:
	for _, e := range c {
		for _, o := range other {
			if e.Equivalent(o) {
				continue outer
			}
		}
		return false
	}
	return true
}

// Cmp compares two singleton collections; ok=false signals an
// indeterminate (empty) comparison result rather than an error.
func (c Collection) Cmp(other Collection) (cmp int, ok bool, err error) {
	if len(c) == 0 || len(other) == 0 {
		return 0, false, nil
	}
	if len(c) != 1 || len(other) != 1 {
		return 0, false, fmt.Errorf("cannot compare collections of length != 1: %v and %v", c, other)
	}
	left, ok := c[0].(cmpElement)
	if !ok {
		if p, pok := toPrimitive(c[0]); pok {
			left, ok = p.(cmpElement)
		}
	}
	if !ok {
		return 0, false, errors.New("only strings, integers, decimals, quantities, dates, datetimes and times can be compared")
	}
	return left.Cmp(other[0])
}

// Union implements `|`: set union with duplicate elimination by equality.
func (c Collection) Union(other Collection) Collection {
	if len(c) == 0 {
		return slices.Clone(other)
	}
	if len(other) == 0 {
		return slices.Clone(c)
	}
	var union Collection
	for _, e := range append(slices.Clone(c), other...) {
		found := false
		for _, u := range union {
			if eq, ok := e.Equal(u); ok && eq {
				found = true
				break
			}
		}
		if !found {
			union = append(union, e)
		}
	}
	return union
}

// Combine concatenates without removing duplicates (used by `combine()`).
func (c Collection) Combine(other Collection) Collection {
	combined := slices.Clone(c)
	return append(combined, other...)
}

// Contains reports membership by equality, used by the `in`/`contains`
// operators.
func (c Collection) Contains(e Element) bool {
	for _, v := range c {
		if eq, ok := v.Equal(e); ok && eq {
			return true
		}
	}
	return false
}

func singletonArith[T any](c, other Collection, what string, f func(left, right Element) (Element, error)) (Collection, error) {
	if len(c) == 0 || len(other) == 0 {
		return nil, nil
	}
	if len(c) != 1 || len(other) != 1 {
		return nil, fmt.Errorf("%s requires singleton operands, got lengths %d and %d", what, len(c), len(other))
	}
	res, err := f(c[0], other[0])
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return Collection{res}, nil
}

func asMultiply(e Element) (multiplyElement, bool) {
	if m, ok := e.(multiplyElement); ok {
		return m, true
	}
	if p, ok := toPrimitive(e); ok {
		m, ok := p.(multiplyElement)
		return m, ok
	}
	return nil, false
}

func asDivide(e Element) (divideElement, bool) {
	if m, ok := e.(divideElement); ok {
		return m, true
	}
	if p, ok := toPrimitive(e); ok {
		m, ok := p.(divideElement)
		return m, ok
	}
	return nil, false
}

func asDiv(e Element) (divElement, bool) {
	if m, ok := e.(divElement); ok {
		return m, true
	}
	if p, ok := toPrimitive(e); ok {
		m, ok := p.(divElement)
		return m, ok
	}
	return nil, false
}

func asMod(e Element) (modElement, bool) {
	if m, ok := e.(modElement); ok {
		return m, true
	}
	if p, ok := toPrimitive(e); ok {
		m, ok := p.(modElement)
		return m, ok
	}
	return nil, false
}

func asAdd(e Element) (addElement, bool) {
	if m, ok := e.(addElement); ok {
		return m, true
	}
	if p, ok := toPrimitive(e); ok {
		m, ok := p.(addElement)
		return m, ok
	}
	return nil, false
}

func asSubtract(e Element) (subtractElement, bool) {
	if m, ok := e.(subtractElement); ok {
		return m, true
	}
	if p, ok := toPrimitive(e); ok {
		m, ok := p.(subtractElement)
		return m, ok
	}
	return nil, false
}

// Multiply implements `*`.
func (c Collection) Multiply(ctx context.Context, other Collection) (Collection, error) {
	return singletonArith[Element](c, other, "multiplication", func(l, r Element) (Element, error) {
		left, ok := asMultiply(l)
		if !ok {
			return nil, errors.New("can only multiply Integer, Long, Decimal or Quantity")
		}
		return left.Multiply(ctx, r)
	})
}

// Divide implements `/`.
func (c Collection) Divide(ctx context.Context, other Collection) (Collection, error) {
	return singletonArith[Element](c, other, "division", func(l, r Element) (Element, error) {
		left, ok := asDivide(l)
		if !ok {
			return nil, errors.New("can only divide Integer, Long, Decimal or Quantity")
		}
		return left.Divide(ctx, r)
	})
}

// Div implements the `div` integer-division operator.
func (c Collection) Div(ctx context.Context, other Collection) (Collection, error) {
	return singletonArith[Element](c, other, "div", func(l, r Element) (Element, error) {
		left, ok := asDiv(l)
		if !ok {
			return nil, errors.New("can only div Integer, Long or Decimal")
		}
		return left.Div(ctx, r)
	})
}

// Mod implements the `mod` operator.
func (c Collection) Mod(ctx context.Context, other Collection) (Collection, error) {
	return singletonArith[Element](c, other, "mod", func(l, r Element) (Element, error) {
		left, ok := asMod(l)
		if !ok {
			return nil, errors.New("can only mod Integer, Long or Decimal")
		}
		return left.Mod(ctx, r)
	})
}

// Add implements `+`.
func (c Collection) Add(ctx context.Context, other Collection) (Collection, error) {
	return singletonArith[Element](c, other, "addition", func(l, r Element) (Element, error) {
		left, ok := asAdd(l)
		if !ok {
			return nil, errors.New("can only add Integer, Long, Decimal, Quantity, String, Date, Time or DateTime")
		}
		return left.Add(ctx, r)
	})
}

// Subtract implements `-`.
func (c Collection) Subtract(ctx context.Context, other Collection) (Collection, error) {
	return singletonArith[Element](c, other, "subtraction", func(l, r Element) (Element, error) {
		left, ok := asSubtract(l)
		if !ok {
			return nil, errors.New("can only subtract from Integer, Long, Decimal, Quantity, Date, Time or DateTime")
		}
		return left.Subtract(ctx, r)
	})
}

// Concat implements `&`, the string-concatenation operator that treats
// empty operands as the empty string rather than propagating empty.
func (c Collection) Concat(other Collection) (Collection, error) {
	if len(c) > 1 || len(other) > 1 {
		return nil, fmt.Errorf("`&` requires singleton-or-empty operands")
	}
	var left, right String
	if len(c) == 1 {
		s, ok, err := c[0].ToString(true)
		if err != nil || !ok {
			return nil, fmt.Errorf("cannot concatenate %T", c[0])
		}
		left = s
	}
	if len(other) == 1 {
		s, ok, err := other[0].ToString(true)
		if err != nil || !ok {
			return nil, fmt.Errorf("cannot concatenate %T", other[0])
		}
		right = s
	}
	return Collection{left + right}, nil
}

func (c Collection) String() string {
	if len(c) == 0 {
		return "{ }"
	}
	var b strings.Builder
	b.WriteString("{ ")
	for i, e := range c {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, e)
	}
	b.WriteString(" }")
	return b.String()
}
