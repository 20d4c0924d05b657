// Package parser builds a span-carrying AST from a token stream, using a
// hand-written precedence-climbing (Pratt) parser rather than a generated
// grammar — see DESIGN.md C4 for why this repo does not use ANTLR.
package parser

import "github.com/octofhir/fhirpath/diagnostic"

// Node is implemented by every AST node. Every node carries a source span
// so diagnostics and analysis can point back at the originating text.
type Node interface {
	Span() diagnostic.Span
	node()
}

type base struct {
	span diagnostic.Span
}

func (b base) Span() diagnostic.Span { return b.span }
func (base) node()                   {}

// Literal is a constant value term: boolean, string, number, date/time/
// datetime, or the empty collection `{}`.
type Literal struct {
	base
	Kind  LiteralKind
	Text  string // raw source text
	Value string // unescaped/canonical value
}

// LiteralKind distinguishes the closed set of FHIRPath literal forms.
type LiteralKind int

const (
	LitEmpty LiteralKind = iota
	LitBoolean
	LitString
	LitNumber
	LitLongNumber
	LitDate
	LitDateTime
	LitTime
	// LitQuantity is a number literal followed by a quoted UCUM unit or a
	// bare calendar-duration keyword (`4 'wk'`, `1 day`), per the grammar's
	// quantity literal production. Value is the combined "<number> <unit>"
	// text value.ParseQuantity accepts.
	LitQuantity
)

// Identifier is a bare member-access name, e.g. `name` in `Patient.name`.
type Identifier struct {
	base
	Name       string
	Delimited  bool // true if written as `` `name` ``
}

// Variable is a `%name` external constant reference, or one of the
// reserved environment variables (`%context`, `%resource`, `%ucum`, ...).
type Variable struct {
	base
	Name string
}

// SpecialInvocation is one of $this, $index, $total.
type SpecialInvocation struct {
	base
	Kind SpecialKind
}

type SpecialKind int

const (
	SpecialThis SpecialKind = iota
	SpecialIndex
	SpecialTotal
)

// FunctionCall is `name(args...)`, either a bare call at term position or
// the right-hand side of a `.` invocation (see MethodCall).
type FunctionCall struct {
	base
	Name string
	Args []Node
}

// MethodCall is `target.name(args...)` or plain member access when Args is
// nil and IsCall is false (e.g. `Patient.name`).
type MethodCall struct {
	base
	Target Node
	Name   string
	Args   []Node
	IsCall bool
}

// Indexer is `target[index]`.
type Indexer struct {
	base
	Target Node
	Index  Node
}

// BinaryOp covers the infix operators: |, +, -, *, /, div, mod, &, =, ~,
// !=, !~, <, <=, >, >=, is, as, in, contains, and, or, xor, implies.
type BinaryOp struct {
	base
	Op    string
	Left  Node
	Right Node
}

// UnaryOp covers prefix + / - and `not` applied as a keyword-less unary
// minus/plus at term position (FHIRPath has no prefix `not` operator; it
// is a function, represented as FunctionCall).
type UnaryOp struct {
	base
	Op      string
	Operand Node
}

// TypeCast is `expr as TypeSpecifier` (operator form, not the as() function).
type TypeCast struct {
	base
	Expr Node
	Type TypeSpecifier
}

// TypeCheck is `expr is TypeSpecifier`.
type TypeCheck struct {
	base
	Expr Node
	Type TypeSpecifier
}

// TypeSpecifier is a possibly-namespaced type name, e.g. `FHIR.Patient` or
// `System.String`.
type TypeSpecifier struct {
	Namespace string
	Name      string
	Span      diagnostic.Span
}

// Tuple is a `{ expr, expr, ... }` collection literal built from a bracketed
// expression list, distinct from the LitEmpty `{}` literal.
type Tuple struct {
	base
	Elements []Node
}

// Parens is a parenthesized sub-expression retained for accurate spans;
// evaluation simply unwraps it.
type Parens struct {
	base
	Inner Node
}

func (t TypeSpecifier) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}
